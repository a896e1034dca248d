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

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cardinalhq/featurestore/warehouse"
)

// SourceReader is the read-only view of the warehouse that computations use.
// *warehouse.Reader satisfies it.
type SourceReader interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
	ListQuoteIDs(ctx context.Context) ([]int64, error)
	ListPolicyIDs(ctx context.Context) ([]int64, error)
	ListPaymentTransactionIDs(ctx context.Context) ([]int64, error)

	GetEarliestSuccessfulPaymentTime(ctx context.Context, userID int64) (pgtype.Timestamptz, error)
	GetQuoteTimes(ctx context.Context, id int64) (warehouse.GetQuoteTimesRow, error)
	CountFailedTransactionsByUser(ctx context.Context, userID int64) (int64, error)
	GetPaymentType(ctx context.Context, id int64) (pgtype.Text, error)
}

var _ SourceReader = (*warehouse.Reader)(nil)
