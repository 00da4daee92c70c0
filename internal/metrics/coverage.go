package metrics

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

const lineRateAttr = "line-rate"

// ParseCoverage reads a Cobertura-style XML coverage report and returns its
// line-coverage ratio. The root element's line-rate attribute wins; without
// it the first nested <coverage> element carrying line-rate is used.
// Non-finite rates are rejected.
func ParseCoverage(r io.Reader) (float64, error) {
	dec := xml.NewDecoder(r)
	atRoot := true
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("parsing coverage xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if atRoot || se.Name.Local == "coverage" {
			if raw, found := attrValue(se, lineRateAttr); found {
				rate, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return 0, fmt.Errorf("parsing %s %q: %w", lineRateAttr, raw, err)
				}
				if math.IsNaN(rate) || math.IsInf(rate, 0) {
					return 0, fmt.Errorf("%s %q is not a finite number", lineRateAttr, raw)
				}
				return rate, nil
			}
		}
		atRoot = false
	}
	return 0, fmt.Errorf("no %s attribute in coverage report", lineRateAttr)
}

// ParseCoverageFile opens path and parses it with ParseCoverage.
func ParseCoverageFile(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return ParseCoverage(f)
}

func attrValue(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
