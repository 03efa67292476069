package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/jsonui/internal/gate"
	"github.com/danielpatrickdp/jsonui/internal/render/headless"
	"github.com/danielpatrickdp/jsonui/internal/value"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description      string                  `json:"description"`
	RootKey          string                  `json:"root_key"`
	Strict           bool                    `json:"strict"`
	Handlers         []string                `json:"handlers"`
	Gate             *FixtureGateConfig      `json:"gate"`
	Document         json.RawMessage         `json:"document"`
	Frames           []FixtureFrame          `json:"frames"`
	Expected         []FixtureExpectedResult `json:"expected"`
	ExpectedDocument json.RawMessage         `json:"expected_document"`
}

// FixtureFrame is the input for one frame.
type FixtureFrame struct {
	Events []headless.Event `json:"events"`
	// Fail makes the backend fail the frame with this message.
	Fail string `json:"fail,omitempty"`
}

// FixtureExpectedResult captures the expected outcome of one frame.
// Frame numbers start at 1.
type FixtureExpectedResult struct {
	Frame     int    `json:"frame"`
	Dirty     bool   `json:"dirty"`
	Saved     bool   `json:"saved"`
	Decision  string `json:"decision,omitempty"`
	Abandoned bool   `json:"abandoned,omitempty"`
}

// FixtureGateConfig mirrors gate.GateConfig with JSON tags.
type FixtureGateConfig struct {
	MaxDepth        int  `json:"max_depth"`
	MaxLeaves       int  `json:"max_leaves"`
	RejectNonFinite bool `json:"reject_non_finite"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// StartDocument decodes the fixture document with int and float kinds kept
// apart. A missing document starts empty.
func (f *Fixture) StartDocument() (any, error) {
	if len(f.Document) == 0 {
		return value.NewMap(), nil
	}
	doc, err := value.Decode(f.Document)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// WantDocument decodes expected_document. ok is false when the fixture does
// not check the final document.
func (f *Fixture) WantDocument() (doc any, ok bool, err error) {
	if len(f.ExpectedDocument) == 0 {
		return nil, false, nil
	}
	doc, err = value.Decode(f.ExpectedDocument)
	if err != nil {
		return nil, false, fmt.Errorf("decode expected_document: %w", err)
	}
	return doc, true, nil
}

// ToConfig converts the fixture settings to a replay Config.
func (f *Fixture) ToConfig() Config {
	cfg := Config{
		RootKey:  f.RootKey,
		Strict:   f.Strict,
		Handlers: f.Handlers,
	}
	if f.Gate != nil {
		g := gate.GateConfig{
			MaxDepth:        f.Gate.MaxDepth,
			MaxLeaves:       f.Gate.MaxLeaves,
			RejectNonFinite: f.Gate.RejectNonFinite,
		}
		cfg.Gate = &g
	}
	return cfg
}

// ToFrames converts the fixture frames to replay frames.
func (f *Fixture) ToFrames() []Frame {
	out := make([]Frame, len(f.Frames))
	for i, ff := range f.Frames {
		out[i] = Frame{Events: ff.Events, Fail: ff.Fail}
	}
	return out
}

// #endregion fixture-loader
