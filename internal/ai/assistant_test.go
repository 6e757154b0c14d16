package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/bod-watchlist/internal/model"
)

var roster = []model.User{
	{ID: 1, Name: "Sekretaris", Role: model.RoleSecretary},
	{ID: 2, Name: "Dewi Lestari", Role: model.RoleUnit, Division: "Keuangan"},
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"total_tokens": 42},
	}
}

func newTestAssistant(t *testing.T, handler http.HandlerFunc) *Assistant {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test", BaseURL: srv.URL + "/v1"}, nil)
}

func Test_ExtractTasks_ParsesWrappedObject(t *testing.T) {
	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		format := req["response_format"].(map[string]any)
		assert.Equal(t, "json_object", format["type"])

		messages := req["messages"].([]any)
		user := messages[1].(map[string]any)["content"].(string)
		assert.Contains(t, user, "ID 2: Dewi Lestari (Keuangan)")
		assert.Contains(t, user, "Notulensi: Dewi memimpin audit")

		_ = json.NewEncoder(w).Encode(chatReply(`{"tasks":[{"title":"Audit klinik","description":"Audit","accountableId":"2","responsibleIds":[2,"1"],"priority":"urgent","meetingDate":"2025-05-01","dueDate":"2025-06-01"}]}`))
	})

	got, err := a.ExtractTasks(context.Background(), "Dewi memimpin audit", roster)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].AccountableID)
	assert.Equal(t, []int64{2, 1}, got[0].ResponsibleIDs)
	assert.Equal(t, model.PriorityUrgent, got[0].Priority)
	assert.True(t, got[0].RequiresEvidence())
}

func Test_ExtractTasks_UnparseableYieldsEmpty(t *testing.T) {
	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatReply("maaf, saya tidak bisa"))
	})

	got, err := a.ExtractTasks(context.Background(), "notes", roster)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func Test_ExtractTasks_APIFailure(t *testing.T) {
	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := a.ExtractTasks(context.Background(), "notes", roster)
	assert.Error(t, err)
}

func Test_Summarize_SendsSnapshots(t *testing.T) {
	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `\"delay\":true`)
		assert.Contains(t, string(body), "Dewi Lestari")
		_ = json.NewEncoder(w).Encode(chatReply("Rapat hari ini membahas satu mandat yang stagnan."))
	})

	text, err := a.Summarize(context.Background(), []model.Task{{
		Title:  "Audit",
		Status: model.StatusStagnant,
		RACI:   model.RACIMatrix{Accountable: roster[1]},
	}})
	require.NoError(t, err)
	assert.Equal(t, "Rapat hari ini membahas satu mandat yang stagnan.", text)
}

func Test_Transcribe(t *testing.T) {
	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.True(t, strings.HasPrefix(r.FormValue("prompt"), "Transkripsikan"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "meeting.webm", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "RIFFdata", string(data))

		_, _ = w.Write([]byte(`{"text":" Dewi bertanggung jawab atas audit. "}`))
	})

	audio := base64.StdEncoding.EncodeToString([]byte("RIFFdata"))
	text, err := a.Transcribe(context.Background(), audio, "audio/webm;codecs=opus")
	require.NoError(t, err)
	assert.Equal(t, "Dewi bertanggung jawab atas audit.", text)
}

func Test_Transcribe_RejectsBadInput(t *testing.T) {
	a := New(Config{APIKey: "x", BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := a.Transcribe(context.Background(), "%%%", "audio/webm")
	assert.Error(t, err)
	_, err = a.Transcribe(context.Background(), "", "audio/webm")
	assert.Error(t, err)
}

func Test_parseCandidates(t *testing.T) {
	got, err := parseCandidates("```json\n[{\"title\":\"A\",\"accountableId\":3,\"priority\":\"BOGUS\"},{\"title\":\"  \"}]\n```")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.PriorityMedium, got[0].Priority)
	assert.Empty(t, got[0].ResponsibleIDs)

	_, err = parseCandidates("")
	assert.Error(t, err)
}
