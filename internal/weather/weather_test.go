package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joeblew999/plat-talhao/internal/metrics"
	"github.com/joeblew999/plat-talhao/internal/service"
)

func TestCompass(t *testing.T) {
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{22.5, "NNE"},
		{45, "NE"},
		{90, "E"},
		{180, "S"},
		{270, "O"},
		{348.75, "N"},
		{359, "N"},
		{360, "N"},
		{-22.5, "NNO"},
	}
	for _, tt := range tests {
		if got := Compass(tt.deg); got != tt.want {
			t.Errorf("Compass(%v) = %q, want %q", tt.deg, got, tt.want)
		}
	}
}

func TestKmhFromMs(t *testing.T) {
	if got := KmhFromMs(3.2); got != 12 { // 11.52
		t.Errorf("KmhFromMs(3.2) = %d, want 12", got)
	}
	if got := KmhFromMs(0); got != 0 {
		t.Errorf("KmhFromMs(0) = %d, want 0", got)
	}
}

func TestParseSnapshot(t *testing.T) {
	t.Run("full body", func(t *testing.T) {
		s, err := ParseSnapshot([]byte(`{"main":{"temp":27.4,"humidity":61},"wind":{"speed":3.2,"deg":200}}`))
		if err != nil {
			t.Fatalf("ParseSnapshot() err = %v", err)
		}
		if s.TemperatureC == nil || *s.TemperatureC != 27.4 {
			t.Errorf("TemperatureC = %v, want 27.4", s.TemperatureC)
		}
		if s.RelativeHumidityPct == nil || *s.RelativeHumidityPct != 61 {
			t.Errorf("RelativeHumidityPct = %v, want 61", s.RelativeHumidityPct)
		}
		if s.WindSpeedKmh == nil || *s.WindSpeedKmh != 12 {
			t.Errorf("WindSpeedKmh = %v, want 12", s.WindSpeedKmh)
		}
		if s.WindDirection != "SSO" {
			t.Errorf("WindDirection = %q, want SSO", s.WindDirection)
		}
	})

	t.Run("missing and malformed fields are unavailable", func(t *testing.T) {
		s, err := ParseSnapshot([]byte(`{"main":{"temp":"hot"},"wind":null}`))
		if err != nil {
			t.Fatalf("ParseSnapshot() err = %v", err)
		}
		if !s.Empty() {
			t.Errorf("snapshot = %+v, want empty", s)
		}
	})

	t.Run("zero is kept", func(t *testing.T) {
		s, err := ParseSnapshot([]byte(`{"main":{"temp":0},"wind":{"speed":0,"deg":0}}`))
		if err != nil {
			t.Fatal(err)
		}
		if s.TemperatureC == nil || *s.TemperatureC != 0 || s.WindSpeedKmh == nil || s.WindDirection != "N" {
			t.Errorf("snapshot = %+v, want zero values present", s)
		}
	})

	t.Run("not an object", func(t *testing.T) {
		for _, body := range []string{`null`, `[1,2]`, `<html>`} {
			if _, err := ParseSnapshot([]byte(body)); err == nil {
				t.Errorf("ParseSnapshot(%s) err = nil, want error", body)
			}
		}
	})
}

func TestOpenWeather_Current(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"lat": q.Get("lat"), "lon": q.Get("lon"), "units": q.Get("units"),
			"lang": q.Get("lang"), "appid": q.Get("appid"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"main":{"temp":25,"humidity":70},"wind":{"speed":1,"deg":90}}`))
	}))
	defer srv.Close()

	p := NewOpenWeather(srv.URL, "secret", time.Second)
	s, err := p.Current(context.Background(), -21.1235, -47.5681)
	if err != nil {
		t.Fatalf("Current() err = %v", err)
	}
	if *s.TemperatureC != 25 || *s.WindSpeedKmh != 4 || s.WindDirection != "E" {
		t.Errorf("snapshot = %+v", s)
	}
	want := map[string]string{"lat": "-21.1235", "lon": "-47.5681", "units": "metric", "lang": "pt_br", "appid": "secret"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestOpenWeather_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := NewOpenWeather(srv.URL, "bad", time.Second).Current(context.Background(), 0, 0); err == nil {
		t.Error("Current() on 401 err = nil, want error")
	}

	for _, key := range []string{"", "  ", "COLOQUE_SUA_OPENWEATHER_API_KEY_AQUI"} {
		p := NewOpenWeather(srv.URL, key, time.Second)
		if p.Configured() {
			t.Errorf("Configured() with key %q = true", key)
		}
		if _, err := p.Current(context.Background(), 0, 0); !errors.Is(err, ErrUnconfigured) {
			t.Errorf("Current() with key %q err = %v, want ErrUnconfigured", key, err)
		}
	}
}

// gateProvider blocks each lookup until the test releases the gate for
// that latitude.
type gateProvider struct {
	mu    sync.Mutex
	gates map[float64]chan result
	calls int
}

type result struct {
	snap service.WeatherSnapshot
	err  error
}

func newGateProvider() *gateProvider {
	return &gateProvider{gates: map[float64]chan result{}}
}

func (g *gateProvider) gate(lat float64) chan result {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[lat]
	if !ok {
		ch = make(chan result, 1)
		g.gates[lat] = ch
	}
	return ch
}

func (g *gateProvider) Current(ctx context.Context, lat, lon float64) (service.WeatherSnapshot, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	r := <-g.gate(lat)
	return r.snap, r.err
}

func (g *gateProvider) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// plotAt returns a square plot whose vertex-mean latitude is exactly lat.
func plotAt(id string, lat float64) *service.FieldPlot {
	return &service.FieldPlot{ID: id, Boundary: orb.Ring{{0, lat}, {0, lat}, {0, lat}, {0, lat}}}
}

func temp(v float64) service.WeatherSnapshot {
	return service.WeatherSnapshot{TemperatureC: &v}
}

func TestEnricher_Success(t *testing.T) {
	p := newGateProvider()
	e := NewEnricher(p, nil, nil)

	var states []State
	var mu sync.Mutex
	e.OnChange(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	e.Select(context.Background(), plotAt("a", 10))
	if !e.State().Busy {
		t.Fatal("Busy = false right after Select")
	}

	p.gate(10) <- result{snap: temp(21)}
	e.Wait()

	st := e.State()
	if st.Busy {
		t.Error("Busy = true after completion")
	}
	if st.Snapshot.TemperatureC == nil || *st.Snapshot.TemperatureC != 21 {
		t.Errorf("snapshot = %+v, want temp 21", st.Snapshot)
	}
	if st.PlotID != "a" || st.UpdatedAt == nil {
		t.Errorf("PlotID = %q UpdatedAt = %v", st.PlotID, st.UpdatedAt)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || !states[0].Busy || states[1].Busy {
		t.Errorf("transitions = %+v, want busy then idle", states)
	}
}

func TestEnricher_FailureKeepsSnapshot(t *testing.T) {
	p := newGateProvider()
	m := metrics.New()
	e := NewEnricher(p, nil, m)

	e.Select(context.Background(), plotAt("a", 10))
	p.gate(10) <- result{snap: temp(21)}
	e.Wait()

	e.Select(context.Background(), plotAt("b", 20))
	p.gate(20) <- result{err: errors.New("boom")}
	e.Wait()

	st := e.State()
	if st.Busy {
		t.Error("Busy = true after failed lookup")
	}
	if *st.Snapshot.TemperatureC != 21 || st.PlotID != "a" {
		t.Errorf("snapshot replaced on failure: %+v", st)
	}
	if got := testutil.ToFloat64(m.WeatherLookups("error")); got != 1 {
		t.Errorf("error lookups = %v, want 1", got)
	}
}

func TestEnricher_StaleResponseDropped(t *testing.T) {
	p := newGateProvider()
	m := metrics.New()
	e := NewEnricher(p, nil, m)

	e.Select(context.Background(), plotAt("a", 10))
	e.Select(context.Background(), plotAt("b", 20))

	// The newer lookup resolves first, then the older one.
	p.gate(20) <- result{snap: temp(30)}
	p.gate(10) <- result{snap: temp(10)}
	e.Wait()

	st := e.State()
	if *st.Snapshot.TemperatureC != 30 || st.PlotID != "b" {
		t.Fatalf("snapshot = %+v for %q, want temp 30 for b", st.Snapshot, st.PlotID)
	}
	if st.Busy {
		t.Error("Busy = true after all lookups resolved")
	}
	if got := testutil.ToFloat64(m.WeatherLookups("stale")); got != 1 {
		t.Errorf("stale lookups = %v, want 1", got)
	}
}

func TestEnricher_DeselectNoLookup(t *testing.T) {
	p := newGateProvider()
	e := NewEnricher(p, nil, nil)

	e.Select(context.Background(), plotAt("a", 10))
	p.gate(10) <- result{snap: temp(21)}
	e.Wait()

	e.Select(context.Background(), nil)
	e.Wait()
	if p.Calls() != 1 {
		t.Fatalf("calls = %d, want 1", p.Calls())
	}
	if st := e.State(); st.Busy || *st.Snapshot.TemperatureC != 21 {
		t.Fatalf("state after deselect = %+v, want idle with previous snapshot", st)
	}
}

func TestEnricher_DeselectDropsInFlight(t *testing.T) {
	p := newGateProvider()
	e := NewEnricher(p, nil, nil)

	e.Select(context.Background(), plotAt("a", 10))
	e.Select(context.Background(), nil)
	p.gate(10) <- result{snap: temp(21)}
	e.Wait()

	if st := e.State(); st.Busy || !st.Snapshot.Empty() {
		t.Fatalf("state = %+v, want idle and empty", st)
	}
}

func TestEnricher_NoCentroidDropsInFlight(t *testing.T) {
	p := newGateProvider()
	e := NewEnricher(p, nil, nil)

	e.Select(context.Background(), plotAt("a", 10))
	e.Select(context.Background(), &service.FieldPlot{ID: "b"})
	if e.State().Busy {
		t.Fatal("Busy = true after selecting a plot without a centroid")
	}
	p.gate(10) <- result{snap: temp(21)}
	e.Wait()

	st := e.State()
	if !st.Snapshot.Empty() || st.PlotID == "a" {
		t.Fatalf("lookup for a landed while b is selected: %+v", st)
	}
	if p.Calls() != 1 {
		t.Errorf("calls = %d, want 1", p.Calls())
	}
}

func TestEnricher_Unconfigured(t *testing.T) {
	e := NewEnricher(nil, nil, nil)
	e.Select(context.Background(), plotAt("a", 10))
	e.Wait()

	st := e.State()
	if st.Busy || st.Configured || !st.Snapshot.Empty() {
		t.Fatalf("state = %+v, want idle, unconfigured, empty", st)
	}
}

func TestEnricher_NoCentroid(t *testing.T) {
	p := newGateProvider()
	e := NewEnricher(p, nil, nil)
	e.Select(context.Background(), &service.FieldPlot{ID: "empty"})
	e.Wait()
	if p.Calls() != 0 || e.State().Busy {
		t.Fatalf("calls = %d busy = %v, want no lookup", p.Calls(), e.State().Busy)
	}
}

func TestEnricher_SnapshotIsCopy(t *testing.T) {
	p := newGateProvider()
	e := NewEnricher(p, nil, nil)
	e.Select(context.Background(), plotAt("a", 10))
	p.gate(10) <- result{snap: temp(21)}
	e.Wait()

	s := e.Snapshot()
	*s.TemperatureC = 99
	if *e.Snapshot().TemperatureC != 21 {
		t.Fatal("caller mutation leaked into the enricher snapshot")
	}
}
