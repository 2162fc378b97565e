package intake

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML intake document. Keys are snake_case.
func Parse(data []byte) (Form, error) {
	var f Form
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Form{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return f, nil
}

// LoadFile reads, validates and builds the intake at path.
func LoadFile(path string) (Intake, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Intake{}, fmt.Errorf("reading intake: %w", err)
	}

	f, err := Parse(data)
	if err != nil {
		return Intake{}, err
	}

	in, err := f.Build()
	if err != nil {
		return Intake{}, err
	}

	slog.Info("intake loaded",
		"path", path,
		"subjects", len(in.Subjects),
		"exams", len(in.Exams),
	)
	return in, nil
}
