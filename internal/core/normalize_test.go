package core

import "testing"

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ubicacion", "ubicacion"},
		{"  Ubicación  ", "ubicacion"},
		{"UBICACIÓN", "ubicacion"},
		{"Equipo biomédico", "equipo biomedico"},
		{"Clasificación por riesgo", "clasificacion por riesgo"},
		{"Año", "ano"},
		{"Serie ", "serie"},
		{"", ""},
		{"   ", ""},
		{"équipe 中文", "equipe"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeColumn(tt.in); got != tt.want {
				t.Errorf("NormalizeColumn(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeColumn_RequiredNamesAreFixedPoints(t *testing.T) {
	for _, name := range RequiredColumns {
		once := NormalizeColumn(name)
		if twice := NormalizeColumn(once); twice != once {
			t.Errorf("NormalizeColumn not idempotent for %q: %q then %q", name, once, twice)
		}
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Monitor ", "Monitor"},
		{`="00123"`, "00123"},
		{`=" 7 "`, "7"},
		{"=SN1", "=SN1"},
		{`"quoted"`, `"quoted"`},
		{"'single'", "'single'"},
		{`Monitor 15"`, `Monitor 15"`},
		{`="`, `="`},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Serie"`, "Serie"},
		{"'Marca'", "Marca"},
		{"=Modelo", "Modelo"},
		{`="Ubicacion"`, "Ubicacion"},
		{" Equipo biomedico ", "Equipo biomedico"},
	}

	for _, tt := range tests {
		if got := cleanHeader(tt.in); got != tt.want {
			t.Errorf("cleanHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMakeColumnIndex(t *testing.T) {
	idx := MakeColumnIndex([]string{"", "Ubicación", "Marca", "MARCA", "Notas"})

	if pos, ok := idx["ubicacion"]; !ok || pos != 1 {
		t.Errorf("ubicacion at %d (ok=%v), want 1", pos, ok)
	}
	if pos := idx["marca"]; pos != 2 {
		t.Errorf("marca at %d, want leftmost 2", pos)
	}
	if _, ok := idx[""]; ok {
		t.Error("empty header cells should not be indexed")
	}

	row := []string{"x", " Sala 3 ", "Philips"}
	if got := idx.Get(row, ColLocation); got != "Sala 3" {
		t.Errorf("Get(Ubicacion) = %q, want %q", got, "Sala 3")
	}
	if got := idx.Get(row, "Notas"); got != "" {
		t.Errorf("Get on short row = %q, want empty", got)
	}
	if got := idx.Get(row, "Unknown"); got != "" {
		t.Errorf("Get on absent column = %q, want empty", got)
	}
}

func TestParseRiskClass(t *testing.T) {
	tests := []struct {
		in      string
		want    RiskClass
		wantErr bool
	}{
		{"", RiskNone, false},
		{"I", RiskI, false},
		{"iia", RiskIIA, false},
		{" IIb ", RiskIIB, false},
		{"II B", RiskIIB, false},
		{"III", RiskIII, false},
		{"IV", RiskNone, true},
		{"alto", RiskNone, true},
	}

	for _, tt := range tests {
		got, err := ParseRiskClass(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRiskClass(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRiskClass(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{StatusActive, StatusOutOfOrder},
		{StatusOutOfOrder, StatusActive},
		{"", StatusOutOfOrder},
		{"En reparación", StatusOutOfOrder},
		{"fuera de servicio", StatusOutOfOrder},
	}

	for _, tt := range tests {
		if got := NextStatus(tt.current); got != tt.want {
			t.Errorf("NextStatus(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}
