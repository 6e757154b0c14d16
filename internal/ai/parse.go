package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nhle/bod-watchlist/internal/model"
)

// flexID accepts an id encoded as a JSON number or a numeric string.
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing id %q: %w", s, err)
		}
		*f = flexID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n)
	return nil
}

type rawCandidate struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	AccountableID  flexID   `json:"accountableId"`
	ResponsibleIDs []flexID `json:"responsibleIds"`
	ConsultedIDs   []flexID `json:"consultedIds"`
	InformedIDs    []flexID `json:"informedIds"`
	Priority       string   `json:"priority"`
	MeetingDate    string   `json:"meetingDate"`
	DueDate        string   `json:"dueDate"`
}

// parseCandidates reads either {"tasks": [...]} or a bare array, stripping
// a Markdown code fence if the model added one.
func parseCandidates(text string) ([]model.Candidate, error) {
	text = stripFence(text)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	var raws []rawCandidate
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &raws); err != nil {
			return nil, fmt.Errorf("decoding candidate array: %w", err)
		}
	} else {
		var wrapped struct {
			Tasks []rawCandidate `json:"tasks"`
		}
		if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
			return nil, fmt.Errorf("decoding candidate object: %w", err)
		}
		raws = wrapped.Tasks
	}

	out := make([]model.Candidate, 0, len(raws))
	for _, r := range raws {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		priority := model.Priority(strings.ToUpper(strings.TrimSpace(r.Priority)))
		if !priority.Valid() {
			priority = model.PriorityMedium
		}
		out = append(out, model.Candidate{
			Title:          strings.TrimSpace(r.Title),
			Description:    strings.TrimSpace(r.Description),
			AccountableID:  int64(r.AccountableID),
			ResponsibleIDs: toIDs(r.ResponsibleIDs),
			ConsultedIDs:   toIDs(r.ConsultedIDs),
			InformedIDs:    toIDs(r.InformedIDs),
			Priority:       priority,
			MeetingDate:    strings.TrimSpace(r.MeetingDate),
			DueDate:        strings.TrimSpace(r.DueDate),
		})
	}
	return out, nil
}

func toIDs(in []flexID) []int64 {
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if id != 0 {
			out = append(out, int64(id))
		}
	}
	return out
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
