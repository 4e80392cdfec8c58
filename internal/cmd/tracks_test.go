package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

const trackID = "11dFghVXANMlKmJXsNCbNl"

func TestTracksGet(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/v1/tracks/"+trackID, jsonResponse(200, trackJSON(trackID, "Cut To The Feeling")))
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "tracks", "get", "spotify:track:"+trackID)
	if err != nil {
		t.Fatalf("tracks get failed: %v", err)
	}
	for _, want := range []string{"Cut To The Feeling", "Global Warming", "3:05", "spotify:track:" + trackID} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestTracksSaved_LimitSpansPages(t *testing.T) {
	ids := testIDs(80)
	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = fmt.Sprintf(`{"added_at":"2024-01-%02dT10:00:00Z","track":%s}`, i%28+1, trackJSON(id, fmt.Sprintf("Song %d", i)))
	}
	handler := newRouteHandler().On("GET", "/v1/me/tracks", pagedResponse("", items))
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "tracks", "saved", "--limit", "70", "-o", "json")
	if err != nil {
		t.Fatalf("tracks saved failed: %v", err)
	}

	saved := decodeItems(t, out)
	if len(saved) != 70 {
		t.Fatalf("expected 70 saved tracks, got %d", len(saved))
	}
	if got := len(handler.Requests()); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
	if q := handler.Requests()[0].Query; !strings.Contains(q, "limit=50") {
		t.Errorf("expected first page limit 50, got %q", q)
	}
}

func TestTracksSaved_SinceStopsAtCutoff(t *testing.T) {
	now := time.Now().UTC()
	ids := testIDs(120)
	items := make([]string, len(ids))
	for i, id := range ids {
		added := now.Add(-time.Duration(i)*24*time.Hour - 12*time.Hour).Format(time.RFC3339)
		items[i] = fmt.Sprintf(`{"added_at":%q,"track":%s}`, added, trackJSON(id, fmt.Sprintf("Song %d", i)))
	}
	handler := newRouteHandler().On("GET", "/v1/me/tracks", pagedResponse("", items))
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "tracks", "saved", "--since", "60 days ago", "--json")
	if err != nil {
		t.Fatalf("tracks saved failed: %v", err)
	}
	if got := len(decodeItems(t, out)); got != 60 {
		t.Errorf("expected 60 tracks saved in the last 60 days, got %d", got)
	}
	if got := len(handler.Requests()); got != 2 {
		t.Errorf("expected paging to stop after 2 requests, got %d", got)
	}

	_, _, err = runCommand(t, "tracks", "saved", "--since", "whenever")
	if err == nil || !strings.Contains(err.Error(), "invalid --since") {
		t.Errorf("expected invalid --since error, got %v", err)
	}
}

func TestTracksSaved_TextShowsAddedDate(t *testing.T) {
	items := []string{fmt.Sprintf(`{"added_at":"2024-03-09T10:00:00Z","track":%s}`, trackJSON(trackID, "Liked"))}
	handler := newRouteHandler().On("GET", "/v1/me/tracks", pagedResponse("", items))
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "tracks", "saved")
	if err != nil {
		t.Fatalf("tracks saved failed: %v", err)
	}
	if !strings.Contains(out, "2024-03-09") || !strings.Contains(out, "Liked") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestTracksSave_BatchesOf50(t *testing.T) {
	handler := newRouteHandler().On("PUT", "/v1/me/tracks", noContent)
	setupTestEnv(t, handler)

	ids := testIDs(60)
	out, _, err := runCommand(t, append([]string{"tracks", "save"}, ids...)...)
	if err != nil {
		t.Fatalf("tracks save failed: %v", err)
	}
	if !strings.Contains(out, "Saved 60 track(s)") {
		t.Errorf("unexpected output: %q", out)
	}

	reqs := handler.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal([]byte(reqs[0].Body), &body); err != nil {
		t.Fatalf("invalid body %q: %v", reqs[0].Body, err)
	}
	if len(body.IDs) != libraryBatchMax {
		t.Errorf("expected %d IDs in first batch, got %d", libraryBatchMax, len(body.IDs))
	}
	if ct := reqs[0].Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON body, got content type %q", ct)
	}
}

func TestTracksRemove_JSON(t *testing.T) {
	handler := newRouteHandler().On("DELETE", "/v1/me/tracks", jsonResponse(200, ``))
	setupTestEnv(t, handler)

	out, _, err := runCommand(t, "tracks", "remove", trackID, "--json")
	if err != nil {
		t.Fatalf("tracks remove failed: %v", err)
	}
	var result map[string]any
	decodeJSON(t, out, &result)
	if result["success"] != true {
		t.Errorf("expected success, got %v", result)
	}
}

func TestTracksSave_Unauthorized(t *testing.T) {
	handler := newRouteHandler().
		On("PUT", "/v1/me/tracks", jsonResponse(401, `{"error":{"status":401,"message":"Invalid access token"}}`))
	setupTestEnv(t, handler)

	_, errOut, err := runCommand(t, "tracks", "save", trackID)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := ExitCode(err); code != exitAuth {
		t.Errorf("expected exit code %d, got %d", exitAuth, code)
	}
	if !strings.Contains(errOut, "spotify auth login") {
		t.Errorf("expected login suggestion, got:\n%s", errOut)
	}
}

func TestTracksGet_ListsEveryFailedID(t *testing.T) {
	missingA, missingB := "4iV5W9uYEdYUVa79Axb7Rh", "1301WleyT98MSxVHPZCA6M"
	handler := newRouteHandler().
		On("GET", "/v1/tracks/"+trackID, jsonResponse(200, trackJSON(trackID, "Cut To The Feeling")))
	setupTestEnv(t, handler)

	out, errOut, err := runCommand(t, "tracks", "get", trackID, missingA, missingB)
	if err == nil {
		t.Fatal("expected an error for the missing tracks")
	}
	if !strings.Contains(out, "Cut To The Feeling") {
		t.Errorf("expected the found track in output, got:\n%s", out)
	}
	if !strings.Contains(errOut, "2 of 3 lookups failed") {
		t.Errorf("expected failure count on stderr, got:\n%s", errOut)
	}
	for _, id := range []string{missingA, missingB} {
		if !strings.Contains(errOut, "  "+id+": ") {
			t.Errorf("expected stderr to list %s, got:\n%s", id, errOut)
		}
	}
	if strings.Contains(errOut, "  "+trackID+": ") {
		t.Errorf("stderr lists a successful lookup:\n%s", errOut)
	}
}
