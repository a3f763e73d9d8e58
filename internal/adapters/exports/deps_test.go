package exports

import (
	"testing"

	"peoplenet/testutil"
)

func TestNoDirectDriverOrStoreImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.DriverImportForbidden, testutil.PersistenceImportForbidden),
		"exports reaches storage only through the service")
}
