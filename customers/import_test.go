package customers_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/sprinkler-crm/backend"
	"github.com/jrsteele09/sprinkler-crm/customers"
)

const importCSV = `First Name,Last Name,Phone,Address,Latitude,Longitude
Ann,Able,5550001111,12 Oak Avenue,45.5,-122.6
B,Baker,5550002222,9 Pine Road Apt 1,,
Cat,Cooper,5550003333,77 Cedar Lane,95,
`

func TestReadCSV(t *testing.T) {
	records, err := customers.ReadCSV(strings.NewReader(importCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "Ann", records[0]["first_name"])
	require.Equal(t, "45.5", records[0]["latitude"])
	require.Equal(t, "", records[1]["latitude"])
}

func TestReadCSV_Empty(t *testing.T) {
	records, err := customers.ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestImportRecords_ReportsRowProblems(t *testing.T) {
	f := setupTestFixture(t)
	records, err := customers.ReadCSV(strings.NewReader(importCSV))
	require.NoError(t, err)

	report, err := customers.ImportRecords(context.Background(), f.store, testUserID, records)
	require.NoError(t, err)

	require.Len(t, report.Imported, 1)
	ann := report.Imported[0]
	require.Equal(t, "Ann", ann.FirstName)
	require.Equal(t, testUserID, ann.UserID)
	require.NotNil(t, ann.Latitude)
	require.InDelta(t, 45.5, *ann.Latitude, 1e-9)

	require.Len(t, report.Rejected, 2)
	require.Equal(t, 2, report.Rejected[0].Row)
	require.Equal(t, []string{"First name is required and must be at least 2 characters"}, report.Rejected[0].Errors)
	require.Equal(t, 3, report.Rejected[1].Row)
	require.Equal(t, []string{"Latitude must be a number between -90 and 90"}, report.Rejected[1].Errors)

	require.Equal(t, 1, f.tables.Rows(backend.TableCustomers))
	require.Equal(t, 1, f.store.TotalCustomers())
}

func TestImportRecords_BatchFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.tables.FailNext("insert", errors.New("payload too large"))
	records := []map[string]any{validRecord()}

	report, err := customers.ImportRecords(context.Background(), f.store, testUserID, records)

	require.Error(t, err)
	require.Empty(t, report.Imported)
	require.Equal(t, "payload too large", f.store.Error())
}

func TestImportRecords_NothingValid(t *testing.T) {
	f := setupTestFixture(t)

	report, err := customers.ImportRecords(context.Background(), f.store, testUserID, []map[string]any{{"first_name": "X"}})

	require.NoError(t, err)
	require.Empty(t, report.Imported)
	require.Len(t, report.Rejected, 1)
}
