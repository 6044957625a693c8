package operation

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/joeblew999/plat-talhao/internal/service"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	drones, err := service.NewDroneCatalog(service.DefaultDrones())
	if err != nil {
		t.Fatal(err)
	}
	return &Builder{
		Drones: drones,
		Now:    func() time.Time { return time.Date(2026, 3, 14, 12, 30, 45, 123456789, time.FixedZone("BRT", -3*3600)) },
	}
}

func selected() *service.FieldPlot {
	p := service.DefaultPlots()[0]
	return &p
}

func completeForm() Form {
	return Form{
		ClientName:     "Acme",
		PropertyName:   "Farm A",
		DroneID:        "drone-1",
		ProductName:    "Herb X",
		DosePerHectare: "2.5 L/ha",
	}
}

func ptr[T any](v T) *T { return &v }

func validationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	return verr
}

func TestBuild_NoSelection(t *testing.T) {
	b := testBuilder(t)
	for name, form := range map[string]Form{
		"empty form":    {},
		"complete form": completeForm(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := b.Build(nil, form, service.WeatherSnapshot{}, "op")
			verr := validationError(t, err)
			if !slices.Equal(verr.Missing, []string{FieldTalhao}) || len(verr.Invalid) != 0 {
				t.Errorf("ValidationError = %+v, want only missing talhao", verr)
			}
		})
	}
}

func TestBuild_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Form)
		want   []string
	}{
		{
			name:   "product and dose",
			mutate: func(f *Form) { f.ProductName, f.DosePerHectare = "", "" },
			want:   []string{FieldProductName, FieldDosePerHectare},
		},
		{
			name:   "everything",
			mutate: func(f *Form) { *f = Form{} },
			want:   []string{FieldClientName, FieldPropertyName, FieldDroneID, FieldProductName, FieldDosePerHectare},
		},
		{
			name:   "whitespace counts as empty",
			mutate: func(f *Form) { f.ClientName = "   " },
			want:   []string{FieldClientName},
		},
	}

	b := testBuilder(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := completeForm()
			tt.mutate(&form)
			_, err := b.Build(selected(), form, service.WeatherSnapshot{}, "op")
			verr := validationError(t, err)
			if !slices.Equal(verr.Missing, tt.want) {
				t.Errorf("Missing = %v, want %v", verr.Missing, tt.want)
			}
		})
	}
}

func TestBuild_InvalidFields(t *testing.T) {
	b := testBuilder(t)
	form := completeForm()
	form.DroneID = "drone-99"
	form.Purpose = "magic"

	_, err := b.Build(selected(), form, service.WeatherSnapshot{}, "op")
	verr := validationError(t, err)
	if !slices.Equal(verr.Invalid, []string{FieldDroneID, FieldPurpose}) {
		t.Errorf("Invalid = %v, want [droneId purpose]", verr.Invalid)
	}
	if len(verr.Missing) != 0 {
		t.Errorf("Missing = %v, want none", verr.Missing)
	}
	if !strings.Contains(err.Error(), "droneId") {
		t.Errorf("Error() = %q, want it to name the field", err.Error())
	}
}

func TestBuild_Success(t *testing.T) {
	b := testBuilder(t)
	b.NewID = func() string { return "op-fixed" }

	form := completeForm()
	form.Notes = "  windbreak on the north side "
	weather := service.WeatherSnapshot{TemperatureC: ptr(27.5), WindSpeedKmh: ptr(9), WindDirection: "NE"}

	rec, err := b.Build(selected(), form, weather, "Piloto Teste")
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}

	if rec.ID != "op-fixed" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Status != service.StatusPendingValidation {
		t.Errorf("Status = %q", rec.Status)
	}
	if rec.TalhaoID != "talhao-1" || rec.TalhaoName != "Talhão 01" {
		t.Errorf("talhao = %q/%q", rec.TalhaoID, rec.TalhaoName)
	}
	if rec.DroneName != "Drone 01 - T40" || rec.DroneModel != "DJI Agras T40" {
		t.Errorf("drone = %q/%q", rec.DroneName, rec.DroneModel)
	}
	if rec.Purpose != service.PurposeHerbicide {
		t.Errorf("Purpose = %q, want herbicide default", rec.Purpose)
	}
	if rec.Notes != "windbreak on the north side" {
		t.Errorf("Notes = %q, want trimmed", rec.Notes)
	}
	if rec.OperatorName != "Piloto Teste" {
		t.Errorf("OperatorName = %q", rec.OperatorName)
	}

	want := time.Date(2026, 3, 14, 15, 30, 45, 123000000, time.UTC)
	if !rec.CreatedAt.Equal(want) || rec.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, want)
	}
	if _, err := time.Parse(time.RFC3339Nano, rec.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		t.Errorf("CreatedAt not ISO-8601: %v", err)
	}
}

func TestBuild_WeatherIsCopied(t *testing.T) {
	b := testBuilder(t)
	weather := service.WeatherSnapshot{TemperatureC: ptr(20.0), RelativeHumidityPct: ptr(55.0)}

	first, err := b.Build(selected(), completeForm(), weather, "op")
	if err != nil {
		t.Fatal(err)
	}

	*weather.TemperatureC = 35
	weather.WindDirection = "S"
	if _, err := b.Build(selected(), completeForm(), weather, "op"); err != nil {
		t.Fatal(err)
	}

	if *first.Weather.TemperatureC != 20 || first.Weather.WindDirection != "" {
		t.Errorf("first record weather changed: %+v", first.Weather)
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if !strings.HasPrefix(a, "op-") || a == b {
		t.Fatalf("NewID() = %q, %q", a, b)
	}
	if a > b {
		t.Errorf("ids not time ordered: %q > %q", a, b)
	}
}

func TestDefaultBuilderFillsIDAndTime(t *testing.T) {
	drones, _ := service.NewDroneCatalog(service.DefaultDrones())
	before := time.Now().UTC().Add(-time.Second)

	rec, err := NewBuilder(drones).Build(selected(), completeForm(), service.WeatherSnapshot{}, "op")
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" || rec.CreatedAt.Before(before) {
		t.Errorf("ID = %q CreatedAt = %v", rec.ID, rec.CreatedAt)
	}
}

type memRecorder struct {
	got []service.OperationRecord
	err error
}

func (m *memRecorder) Record(ctx context.Context, rec service.OperationRecord) error {
	m.got = append(m.got, rec)
	return m.err
}

func TestRecorders(t *testing.T) {
	failing := &memRecorder{err: errors.New("broker down")}
	ok := &memRecorder{}

	err := Recorders{failing, ok}.Record(context.Background(), service.OperationRecord{ID: "op-1"})
	if err == nil || !strings.Contains(err.Error(), "broker down") {
		t.Fatalf("err = %v, want joined recorder error", err)
	}
	if len(ok.got) != 1 {
		t.Error("later recorder skipped after a failure")
	}
}
