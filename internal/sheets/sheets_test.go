package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const levelCSV = "이름,설명,경험치\n" +
	"레벨1,시작,\n" +
	"레벨2,,100\n" +
	"레벨3,,\"150\"\n" +
	"레벨4,,abc\n" +
	"레벨5,,200 EXP\n"

func TestParseThresholdsFromRowThree(t *testing.T) {
	got := ParseThresholds(levelCSV)
	want := []float64{100, 150, 0, 200}
	if len(got) != len(want) {
		t.Fatalf("threshold count: want %d, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("threshold %d: want %v, got %v", i, want[i], got[i])
		}
	}
}

func TestParseColumnARange(t *testing.T) {
	csv := "헤더\n힘\n재주\n\n지능\n"
	got := ParseColumnA(csv, 2, 12)
	want := []string{"힘", "재주", "지능"}
	if len(got) != len(want) {
		t.Fatalf("stat rows: want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stat row %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestToNumberCoercion(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"100", 100},
		{"1,5 EXP", 15},
		{"  250 ", 250},
		{"-3.5", -3.5},
		{"abc", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := ToNumber(c.in); got != c.want {
			t.Fatalf("ToNumber(%q): want %v, got %v", c.in, c.want, got)
		}
	}
}

func TestFetchFallsBackAcrossCandidates(t *testing.T) {
	var hits []string
	mux := http.NewServeMux()
	mux.HandleFunc("/bad", func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "bad")
		http.Error(w, "nope", http.StatusForbidden)
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "empty")
	})
	mux.HandleFunc("/good", func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "good")
		_, _ = w.Write([]byte(levelCSV))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient([]string{srv.URL + "/bad", srv.URL + "/empty", srv.URL + "/good"}, srv.Client(), nil)
	got, err := c.FetchThresholds(context.Background())
	if err != nil {
		t.Fatalf("FetchThresholds: %v", err)
	}
	if len(got) != 4 || got[0] != 100 {
		t.Fatalf("unexpected thresholds: %v", got)
	}
	if len(hits) != 3 {
		t.Fatalf("expected all three candidates to be tried in order, got %v", hits)
	}
}

func TestFetchReturnsLastErrorWhenAllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	c := NewClient([]string{srv.URL, srv.URL}, srv.Client(), nil)
	if _, err := c.FetchCSV(context.Background()); err == nil {
		t.Fatalf("expected an error when every candidate fails")
	}
}
