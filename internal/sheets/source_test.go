package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/zeccol/marketlist/internal/domain"
)

func TestColumnIndex_NormalizesHeaderVariants(t *testing.T) {
	table := &Table{Header: []string{"Date", "Item Name", "Bundle_Qty Unit", "%_Proportion", " Qty_Received "}}

	assert.Equal(t, 0, table.ColumnIndex("date"))
	assert.Equal(t, 1, table.ColumnIndex("item name"))
	assert.Equal(t, 2, table.ColumnIndex("bundle qty unit"))
	assert.Equal(t, 3, table.ColumnIndex("proportion", "%_proportion"))
	assert.Equal(t, 4, table.ColumnIndex("qty received"))
	assert.Equal(t, -1, table.ColumnIndex("no such column"))
}

func TestCell_ShortRow(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "b", Cell(row, 1))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
}

func TestCleanRow_StripsQuotesAndSpace(t *testing.T) {
	row := cleanRow([]interface{}{` "RICE" `, 12.5, "  x"})
	assert.Equal(t, []string{"RICE", "12.5", "x"}, row)
}

func TestWrapAPIError(t *testing.T) {
	throttled := wrapAPIError("Issues", &googleapi.Error{Code: 429})
	assert.True(t, domain.IsRateLimited(throttled))

	broken := wrapAPIError("Issues", &googleapi.Error{Code: 500})
	assert.False(t, domain.IsRateLimited(broken))

	var dsErr *domain.DataSourceError
	assert.ErrorAs(t, broken, &dsErr)
}
