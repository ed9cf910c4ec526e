package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rcliao/symptom-catalog/internal/model"
	"github.com/rcliao/symptom-catalog/internal/textnorm"
)

// categoryRule maps keyword fragments to a category. Fragments match as
// substrings of the lowercased name, so "dizz" covers dizzy and dizziness.
type categoryRule struct {
	category string
	keywords []string
}

// categoryRules are tried in order; the first hit wins.
var categoryRules = []categoryRule{
	{"cardiovascular", []string{"heart", "chest", "cardiac", "palpitation", "circulation", "blood pressure"}},
	{"respiratory", []string{"breath", "lung", "cough", "wheez", "respiratory", "throat", "sinus", "nose", "nasal", "sputum"}},
	{"neurological", []string{"head", "dizz", "seizure", "memory", "confusion", "nerve", "paralysis", "neurological", "brain", "conscious", "cognitive"}},
	{"gastrointestinal", []string{"stomach", "abdominal", "bowel", "diarrhea", "vomit", "nausea", "digest", "stool", "constipation", "intestin", "rectal", "anus"}},
	{"musculoskeletal", []string{"joint", "bone", "muscle", "back", "neck", "shoulder", "leg", "arm", "knee", "hip", "elbow", "ankle", "wrist", "foot", "toe", "hand", "finger"}},
	{"dermatological", []string{"skin", "rash", "itch", "lesion", "wound", "blister", "mole", "wart", "scalp", "hair", "nail"}},
	{"psychological", []string{"anxiety", "depression", "psycho", "emotion", "mood", "stress", "fear", "phobia", "panic", "behavior", "sleep", "insomnia"}},
	{"urological", []string{"urin", "bladder", "kidney", "prostate", "renal"}},
	{"visual", []string{"eye", "vision", "blind", "sight", "eyelid", "pupil"}},
	{"ENT", []string{"ear", "hearing", "tinnitus", "deaf"}},
	{"reproductive", []string{"menstrual", "pregnancy", "vaginal", "uterine", "sexual", "breast", "testicle", "penis", "scrotum", "vulva", "ovarian"}},
}

// DefaultCategory is assigned when no rule matches.
const DefaultCategory = "general"

// Categorize guesses a category for a symptom name from keyword rules.
func Categorize(name string) string {
	lower := strings.ToLower(name)
	for _, r := range categoryRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return DefaultCategory
}

// Convert builds a catalog from the header row of a disease/symptom matrix,
// where the first column names the disease and every other column is a
// symptom. Codes follow column order starting at S00001; each name is also
// its own alias. Blank columns are skipped, and so are names that repeat an
// earlier column, though they still consume a code number.
func Convert(r io.Reader) ([]model.Symptom, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("dataset is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if len(head) < 2 {
		return nil, fmt.Errorf("dataset header has %d columns, need a disease column and at least one symptom", len(head))
	}

	var out []model.Symptom
	seen := make(map[string]bool)
	for i, col := range head[1:] {
		name := strings.TrimSpace(col)
		k := textnorm.WordKey(name)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, model.Symptom{
			Code:     model.FormatCode(i + 1),
			Name:     name,
			Aliases:  []string{name},
			Category: Categorize(name),
		})
	}
	return out, nil
}

// Init writes a new catalog file. It refuses to overwrite an existing file.
func Init(path string, symptoms []model.Symptom) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("catalog %s already exists", path)
	}
	return Save(path, symptoms)
}
