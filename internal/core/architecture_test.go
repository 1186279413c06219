package core

import (
	"testing"

	"tailorbook/testutil"
)

func TestCoreReachesDriversThroughPersistence(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.DriverImportForbidden,
		"core opens storage through internal/infra/persistence backends")
}
