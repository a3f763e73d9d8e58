package httpapi

import (
	"testing"

	"peoplenet/testutil"
)

func TestNoDirectDriverOrStoreImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.DriverImportForbidden, testutil.PersistenceImportForbidden),
		"httpapi reaches storage only through the service")
}
