package graph

import (
	"io"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

// Document is the serializable form of a step graph.
type Document struct {
	Entry string    `yaml:"entry" json:"entry"`
	Steps []StepDoc `yaml:"steps" json:"steps"`
}

// StepDoc describes a single step.
type StepDoc struct {
	ID       string          `yaml:"id" json:"id"`
	Kind     domain.StepKind `yaml:"kind" json:"kind"`
	Message  string          `yaml:"message,omitempty" json:"message,omitempty"`
	Next     []string        `yaml:"next" json:"next"`
	Computed bool            `yaml:"computed,omitempty" json:"computed,omitempty"`
}

// NewDocument captures steps in declaration order.
func NewDocument(steps []domain.Step, entry string) Document {
	doc := Document{Entry: entry, Steps: make([]StepDoc, 0, len(steps))}
	for _, st := range steps {
		doc.Steps = append(doc.Steps, StepDoc{
			ID:       st.ID,
			Kind:     st.Kind,
			Message:  st.Message,
			Next:     st.Next(),
			Computed: st.Trigger.IsComputed(),
		})
	}
	return doc
}

// WriteYAML encodes doc as YAML.
func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// WriteJSON encodes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	out, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}
