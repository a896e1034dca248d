// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// DefaultRegistry returns a frozen registry holding the built-in features.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	r.Freeze()
	return r
}

// RegisterBuiltins adds the built-in feature set to r.
func RegisterBuiltins(r *Registry) {
	r.Register(Definition{
		FeatureType: "user_policy_time_of_purchase",
		DisplayName: "User Policy Time of Purchase",
		Description: "Time of the earliest successful payment on the user's policies",
		EntityKind:  EntityUser,
		DataType:    DataTypeDatetime,
		Compute:     policyTimeOfPurchase,
	})
	r.Register(Definition{
		FeatureType: "quote_creation_to_binding_time",
		DisplayName: "Quote Creation to Binding Time",
		Description: "Seconds between quote creation and binding",
		EntityKind:  EntityQuote,
		DataType:    DataTypeInteger,
		Compute:     quoteCreationToBinding,
	})
	r.Register(Definition{
		FeatureType: "user_failed_transaction_count",
		DisplayName: "User Failed Transaction Count",
		Description: "Number of failed payment transactions across the user's policies",
		EntityKind:  EntityUser,
		DataType:    DataTypeInteger,
		Compute:     failedTransactionCount,
	})
	r.Register(Definition{
		FeatureType: "payment_type",
		DisplayName: "Payment Type",
		Description: "Payment method used by the transaction",
		EntityKind:  EntityPaymentTransaction,
		DataType:    DataTypeString,
		Compute:     paymentType,
	})
}

func policyTimeOfPurchase(ctx context.Context, src SourceReader, userID int64) (Value, error) {
	ts, err := src.GetEarliestSuccessfulPaymentTime(ctx, userID)
	if err != nil {
		return Value{}, err
	}
	if !ts.Valid {
		return Value{}, ErrEntityNotFound
	}
	return TimeValue(ts.Time), nil
}

func quoteCreationToBinding(ctx context.Context, src SourceReader, quoteID int64) (Value, error) {
	row, err := src.GetQuoteTimes(ctx, quoteID)
	if err != nil {
		return Value{}, err
	}
	if !row.CreateTime.Valid || !row.BindTime.Valid {
		return Value{}, ErrNotApplicable
	}
	// Duration division truncates toward zero; negative spans are kept.
	secs := int64(row.BindTime.Time.Sub(row.CreateTime.Time) / time.Second)
	return IntValue(secs), nil
}

func failedTransactionCount(ctx context.Context, src SourceReader, userID int64) (Value, error) {
	n, err := src.CountFailedTransactionsByUser(ctx, userID)
	if err != nil {
		return Value{}, err
	}
	return IntValue(n), nil
}

func paymentType(ctx context.Context, src SourceReader, txID int64) (Value, error) {
	pt, err := src.GetPaymentType(ctx, txID)
	if err != nil {
		return Value{}, err
	}
	if !pt.Valid {
		return Value{}, fmt.Errorf("%w: transaction %d has no payment type", ErrEntityNotFound, txID)
	}
	return StringValue(pt.String), nil
}

// isNoRows reports whether err means the addressed row does not exist.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
