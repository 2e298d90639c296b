package datasource

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/seenimoa/mfindia/internal/config"
)

const sampleNAVFeed = "Scheme Code;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date\r\n" +
	"\r\n" +
	"Open Ended Schemes(Debt Scheme - Banking and PSU Fund)\r\n" +
	"\r\n" +
	"Aditya Birla Sun Life Mutual Fund\r\n" +
	"\r\n" +
	"119551;INF209KA12Z1;INF209KA13Z9;Aditya Birla Sun Life Banking & PSU Debt Fund  - DIRECT - IDCW;105.0157;16-Oct-2026\r\n" +
	"119552;INF209K01YM2;-;Aditya Birla Sun Life Banking & PSU Debt Fund  - DIRECT - MONTHLY IDCW;111.2345;16-Oct-2026\r\n" +
	"\r\n" +
	"Axis Mutual Fund\r\n" +
	"120465;INF846K01DP8;-;Axis Bluechip Fund - Direct Plan - Growth;12.3456;16-Oct-2026\r\n"

func testSession(t *testing.T) *Session {
	t.Helper()
	return NewSession(config.HTTPConfig{TimeoutSec: 5}, zerolog.Nop())
}

// serveText starts a server answering every request with body.
func serveText(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
