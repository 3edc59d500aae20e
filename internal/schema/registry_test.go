package schema

import (
	"testing"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&TableDescriptor{Filename: "b.txt"})
	r.Register(&TableDescriptor{Filename: "A.txt"})

	if r.TableCount() != 2 {
		t.Fatalf("TableCount() = %d, want 2", r.TableCount())
	}

	desc, ok := r.Get("a.TXT")
	if !ok {
		t.Fatal("Get should ignore case")
	}
	if desc.Filename != "A.txt" {
		t.Errorf("Filename = %q, want A.txt", desc.Filename)
	}

	all := r.All()
	if len(all) != 2 || all[0].Filename != "A.txt" || all[1].Filename != "b.txt" {
		t.Errorf("All() not sorted by filename: %v", all)
	}

	r.Clear()
	if r.TableCount() != 0 {
		t.Errorf("TableCount() after Clear = %d, want 0", r.TableCount())
	}
}

func TestRegistry_RegisterPanics(t *testing.T) {
	tests := []struct {
		name  string
		first *TableDescriptor
		next  *TableDescriptor
	}{
		{
			name:  "duplicate filename",
			first: &TableDescriptor{Filename: "stops.txt"},
			next:  &TableDescriptor{Filename: "STOPS.txt"},
		},
		{
			name: "duplicate column",
			next: &TableDescriptor{Filename: "x.txt", Columns: []ColumnDescriptor{{Name: "a"}, {Name: "a"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			if tt.first != nil {
				r.Register(tt.first)
			}
			defer func() {
				if recover() == nil {
					t.Error("Register should panic")
				}
			}()
			r.Register(tt.next)
		})
	}
}

func TestTableDescriptor_Keys(t *testing.T) {
	desc, ok := Get("stop_times.txt")
	if !ok {
		t.Fatal("stop_times.txt not registered")
	}

	key := desc.PrimaryKey()
	if len(key) != 2 || key[0] != "trip_id" || key[1] != "stop_sequence" {
		t.Errorf("PrimaryKey() = %v", key)
	}

	fks := desc.ForeignKeys()
	if len(fks) != 2 {
		t.Fatalf("ForeignKeys() = %d columns, want 2", len(fks))
	}
	if fks[0].ForeignKey.Table != "trips.txt" || fks[1].ForeignKey.Table != "stops.txt" {
		t.Errorf("unexpected foreign keys: %+v, %+v", fks[0].ForeignKey, fks[1].ForeignKey)
	}

	if idx := desc.ColumnIndex("stop_sequence"); idx != 4 {
		t.Errorf("ColumnIndex(stop_sequence) = %d, want 4", idx)
	}
	if _, ok := desc.Column("nope"); ok {
		t.Error("Column(nope) should not exist")
	}
}

func TestGTFSTables(t *testing.T) {
	tests := []struct {
		filename    string
		required    bool
		recommended bool
	}{
		{"agency.txt", true, false},
		{"stops.txt", true, false},
		{"routes.txt", true, false},
		{"trips.txt", true, false},
		{"stop_times.txt", true, false},
		{"calendar.txt", false, false},
		{"feed_info.txt", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			desc, ok := Get(tt.filename)
			if !ok {
				t.Fatalf("%s not registered", tt.filename)
			}
			if desc.Required != tt.required || desc.Recommended != tt.recommended {
				t.Errorf("required=%v recommended=%v", desc.Required, desc.Recommended)
			}
		})
	}

	if n := Default().TableCount(); n != 11 {
		t.Errorf("default registry has %d tables, want 11", n)
	}
}

func TestColumnDescriptor_KnownEnum(t *testing.T) {
	desc, _ := Get("routes.txt")
	col, ok := desc.Column("route_type")
	if !ok {
		t.Fatal("route_type missing")
	}
	if !col.KnownEnum(3) || col.KnownEnum(8) {
		t.Error("KnownEnum mismatch for route_type")
	}
	if FieldPhoneNumber.String() != "phone number" || FieldType(99).String() != "unknown" {
		t.Error("FieldType.String mismatch")
	}
}
