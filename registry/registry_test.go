package registry_test

import (
	"sync"
	"testing"

	kitlog "github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/metadata"
	"github.com/plexusrt/plexus/registry"
)

func newRegistry() (*registry.Registry, *metadata.Store) {
	meta := metadata.NewStore()
	return registry.New(meta, kitlog.NewNopLogger()), meta
}

func mustKey(t *testing.T, s string) registry.KeyDefinition {
	t.Helper()

	key, err := registry.ParseKeyDefinition(s)
	require.NoError(t, err)

	return key
}

func TestRegistry_FirstRegistration(t *testing.T) {
	reg, meta := newRegistry()

	rev, err := reg.Register("orders", mustKey(t, "id:int"), registry.Contract{
		Fields: []registry.Field{
			{Name: "total", Type: registry.TypeLong, Required: true},
		},
	})

	require.NoError(t, err)
	require.Equal(t, uint64(1), rev.Revision)
	require.Equal(t, metadata.Version(1), meta.Version(metadata.Schema))
}

func TestRegistry_CompatibleUpgrade(t *testing.T) {
	reg, _ := newRegistry()

	contract := registry.Contract{
		Fields: []registry.Field{
			{Name: "total", Type: registry.TypeInt, Required: true},
		},
	}

	_, err := reg.Register("orders", mustKey(t, "id:int"), contract)
	require.NoError(t, err)

	// Same key, added optional field, widened type: accepted as revision 2.
	upgraded := registry.Contract{
		Fields: []registry.Field{
			{Name: "total", Type: registry.TypeLong, Required: true},
			{Name: "note", Type: registry.TypeString},
		},
	}

	rev, err := reg.Register("orders", mustKey(t, "id:int"), upgraded)
	require.NoError(t, err)
	require.Equal(t, uint64(2), rev.Revision)
}

func TestRegistry_KeyChangeRejected(t *testing.T) {
	reg, _ := newRegistry()

	contract := registry.Contract{
		Fields: []registry.Field{{Name: "total", Type: registry.TypeInt}},
	}

	_, err := reg.Register("orders", mustKey(t, "id:int"), contract)
	require.NoError(t, err)

	_, err = reg.Register("orders", mustKey(t, "id:string"), contract)

	var conflict *registry.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, registry.ReasonKeyMismatch, conflict.Reason)

	code, ok := ecode.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, ecode.CodeRevisionConflict, code)

	// No new record was created.
	latest, ok := reg.Latest("orders")
	require.True(t, ok)
	require.Equal(t, uint64(1), latest.Revision)
}

func TestRegistry_IncompatibleContractRejected(t *testing.T) {
	reg, _ := newRegistry()

	key := mustKey(t, "id:int")

	_, err := reg.Register("orders", key, registry.Contract{
		Fields: []registry.Field{
			{Name: "total", Type: registry.TypeLong, Required: true},
			{Name: "note", Type: registry.TypeString},
		},
	})
	require.NoError(t, err)

	for _, tt := range []struct {
		name     string
		contract registry.Contract
	}{
		{
			name: "removed required field",
			contract: registry.Contract{
				Fields: []registry.Field{{Name: "note", Type: registry.TypeString}},
			},
		},
		{
			name: "narrowed type",
			contract: registry.Contract{
				Fields: []registry.Field{
					{Name: "total", Type: registry.TypeInt, Required: true},
					{Name: "note", Type: registry.TypeString},
				},
			},
		},
		{
			name: "tightened optional field",
			contract: registry.Contract{
				Fields: []registry.Field{
					{Name: "total", Type: registry.TypeLong, Required: true},
					{Name: "note", Type: registry.TypeString, Required: true},
				},
			},
		},
		{
			name: "new required field without default",
			contract: registry.Contract{
				Fields: []registry.Field{
					{Name: "total", Type: registry.TypeLong, Required: true},
					{Name: "note", Type: registry.TypeString},
					{Name: "origin", Type: registry.TypeString, Required: true},
				},
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Register("orders", key, tt.contract)

			var conflict *registry.ConflictError
			require.ErrorAs(t, err, &conflict)
			require.Equal(t, registry.ReasonContractIncompatible, conflict.Reason)

			latest, ok := reg.Latest("orders")
			require.True(t, ok)
			require.Equal(t, uint64(1), latest.Revision)
		})
	}
}

func TestRegistry_NewRequiredFieldWithDefaultAccepted(t *testing.T) {
	reg, _ := newRegistry()

	key := mustKey(t, "id:int")

	_, err := reg.Register("orders", key, registry.Contract{
		Fields: []registry.Field{{Name: "total", Type: registry.TypeLong, Required: true}},
	})
	require.NoError(t, err)

	rev, err := reg.Register("orders", key, registry.Contract{
		Fields: []registry.Field{
			{Name: "total", Type: registry.TypeLong, Required: true},
			{Name: "currency", Type: registry.TypeString, Required: true, HasDefault: true},
		},
	})

	require.NoError(t, err)
	require.Equal(t, uint64(2), rev.Revision)
}

func TestRegistry_HistoryIsImmutable(t *testing.T) {
	reg, _ := newRegistry()

	key := mustKey(t, "id:int")

	_, err := reg.Register("orders", key, registry.Contract{
		Fields: []registry.Field{{Name: "total", Type: registry.TypeLong, Required: true}},
	})
	require.NoError(t, err)

	// Mutating a returned record must not affect the stored history.
	latest, ok := reg.Latest("orders")
	require.True(t, ok)
	latest.Contract.Fields[0].Name = "tampered"

	fresh, _ := reg.Latest("orders")
	require.Equal(t, "total", fresh.Contract.Fields[0].Name)

	revs, err := reg.Revisions("orders")
	require.NoError(t, err)
	require.Len(t, revs, 1)
}

func TestRegistry_ConcurrentDistinctTypes(t *testing.T) {
	reg, meta := newRegistry()

	types := []string{"orders", "users", "payments", "sessions"}
	wg := sync.WaitGroup{}

	for _, typ := range types {
		wg.Add(1)

		go func(typ string) {
			defer wg.Done()

			key := registry.KeyDefinition{
				Fields: []registry.Field{{Name: "id", Type: registry.TypeInt}},
			}

			contract := registry.Contract{
				Fields: []registry.Field{{Name: "v", Type: registry.TypeInt}},
			}

			for i := 0; i < 10; i++ {
				_, err := reg.Register(typ, key, contract)
				require.NoError(t, err)
			}
		}(typ)
	}

	wg.Wait()

	for _, typ := range types {
		latest, ok := reg.Latest(typ)
		require.True(t, ok)
		require.Equal(t, uint64(10), latest.Revision)
	}

	require.Equal(t, metadata.Version(40), meta.Version(metadata.Schema))
	require.Equal(t, []string{"orders", "payments", "sessions", "users"}, reg.InstanceTypes())
}

func TestRegistry_UnknownType(t *testing.T) {
	reg, _ := newRegistry()

	_, err := reg.Revisions("ghost")

	code, ok := ecode.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, ecode.CodeUnknownServiceType, code)
}
