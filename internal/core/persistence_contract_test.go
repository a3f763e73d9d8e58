package core

import (
	"go/types"
	"path/filepath"
	"runtime"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestStoreImplementationsHardening ensures only sanctioned persistence packages
// provide concrete implementations of the domain.Store interface.
func TestStoreImplementationsHardening(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes}
	pkgs, err := packages.Load(cfg, "peoplenet/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	var store *types.Interface
	for _, p := range pkgs {
		if p.PkgPath != "peoplenet/pkg/domain" {
			continue
		}
		obj := p.Types.Scope().Lookup("Store")
		if obj == nil {
			t.Fatalf("domain.Store not found")
		}
		iface, ok := obj.Type().Underlying().(*types.Interface)
		if !ok {
			t.Fatalf("domain.Store is not an interface")
		}
		store = iface
	}
	if store == nil {
		t.Fatalf("failed to resolve Store interface")
	}
	allowed := map[string]struct{}{
		"peoplenet/internal/infra/persistence/memory":   {},
		"peoplenet/internal/infra/persistence/sqlite":   {},
		"peoplenet/internal/infra/persistence/postgres": {},
		"peoplenet/internal/infra/persistence/sqlstore": {},
	}
	var unexpected []string
	for _, p := range pkgs {
		if p.Types == nil || p.Types.Scope() == nil {
			continue
		}
		for _, name := range p.Types.Scope().Names() {
			obj := p.Types.Scope().Lookup(name)
			if _, isType := obj.(*types.TypeName); !isType {
				continue
			}
			named, ok := obj.Type().(*types.Named)
			if !ok {
				continue
			}
			if _, ok := named.Underlying().(*types.Struct); !ok {
				continue
			}
			if types.Implements(types.NewPointer(named), store) {
				if _, ok := allowed[p.PkgPath]; !ok {
					unexpected = append(unexpected, p.PkgPath+"."+name)
				}
			}
		}
	}
	if len(unexpected) > 0 {
		_, file, line, _ := runtime.Caller(0)
		t.Fatalf("unexpected Store implementations (update allowed list intentionally if adding a new backend):\nfile=%s:%d\n%s", filepath.Base(file), line, unexpected)
	}
}
