package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tichu/internal/factory"
	"github.com/mcoot/tichu/internal/model"
	"github.com/mcoot/tichu/internal/protocol"
)

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
}

// newWebTestServer creates a new test server with all dependencies wired
func newWebTestServer(t *testing.T) *webTestServer {
	t.Helper()

	app := factory.NewTestApp()
	return &webTestServer{
		t:       t,
		handler: app.HTTPHandler(),
		app:     app,
	}
}

// get makes a GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

func TestIndexPageShowsEndpointAndCounts(t *testing.T) {
	ts := newWebTestServer(t)

	rr := ts.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	doc := parseHTML(rr.Body)
	assert.Equal(t, "Tichu", doc.Find("h1").Text())
	assert.Contains(t, doc.Find("#endpoint code").Text(), "/ws?user_id=no_id")
	assert.Equal(t, "0", doc.Find("#stats .connections").Text())
	assert.Equal(t, "0", doc.Find("#stats .games").Text())
	assert.Equal(t, 1, doc.Find("p.empty").Length())
	assert.Equal(t, 0, doc.Find("#recent").Length())
}

func TestIndexPageCountsLiveGames(t *testing.T) {
	ts := newWebTestServer(t)
	ts.app.MockRandom.QueueString("ABCD")
	_, err := ts.app.GameController.CreateGame(t.Context(), "alice", "Alice")
	require.NoError(t, err)

	doc := parseHTML(ts.get("/").Body)
	assert.Equal(t, "1", doc.Find("#stats .games").Text())
}

func TestIndexPageListsRecentGames(t *testing.T) {
	ts := newWebTestServer(t)

	summary := &model.GameSummary{
		ID:   "game-1",
		Code: "WXYZ",
		Players: []model.SummaryPlayer{
			{UserID: "a", DisplayName: "Alice", Seat: 0},
			{UserID: "b", DisplayName: "<b>Bob</b>", Seat: 1},
		},
		TeamScores:  [2]int{70, 30},
		CompletedAt: ts.app.MockClock.Now(),
	}
	require.NoError(t, ts.app.Storage.SaveSummary(t.Context(), summary))

	rr := ts.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.NotContains(t, body, "<b>Bob</b>")

	doc := parseHTML(strings.NewReader(body))
	rows := doc.Find("#recent tr.game")
	require.Equal(t, 1, rows.Length())
	assert.Equal(t, "WXYZ", rows.Find(".code").Text())
	assert.Equal(t, "Alice, <b>Bob</b>", rows.Find(".players").Text())

	scores := rows.Find(".score").Map(func(_ int, sel *goquery.Selection) string { return sel.Text() })
	assert.Equal(t, []string{"70", "30"}, scores)
}

func TestUnknownPathIsNotFound(t *testing.T) {
	ts := newWebTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.get("/lobby").Code)
}

func TestSocketUpgradesThroughMiddleware(t *testing.T) {
	ts := newWebTestServer(t)
	server := httptest.NewServer(ts.handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?user_id=alice"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, protocol.MustEncode(&protocol.ClientPing{})))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := protocol.DecodeServer(data)
	require.NoError(t, err)
	assert.IsType(t, &protocol.ServerPong{}, msg)

	// The page now counts the open connection
	doc := parseHTML(ts.get("/").Body)
	assert.Equal(t, "1", doc.Find("#stats .connections").Text())
}

func TestPlainRequestToSocketFails(t *testing.T) {
	ts := newWebTestServer(t)
	assert.Equal(t, http.StatusBadRequest, ts.get("/ws").Code)
}
