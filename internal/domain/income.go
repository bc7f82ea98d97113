package domain

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// incomeColumns renames the SAIPE variables to the names used downstream.
var incomeColumns = map[string]string{
	"SAEMHI_PT":      "med_inc",
	"SAEPOVRTALL_PT": "pov_rate",
	"NAME":           "county",
	"county":         "fips_county",
}

// CleanIncomePoverty parses the census SAIPE time-series response and keeps one
// record per county for the requested year.
//
// The API answers with a JSON array of arrays, which is read line by line as
// CSV. Bracket and quote characters bleed into the first and last columns
// (med_inc and fips_county) and are stripped; the literal null marks a
// missing value.
func CleanIncomePoverty(body []byte, year int) ([]IncomePovertyRecord, Report, error) {
	rep := newReport("income_poverty")

	t, err := parseBracketedCSV("income_poverty", body)
	if err != nil {
		return nil, rep, err
	}
	if err := t.Require("med_inc", "pov_rate", "county", "state", "fips_county"); err != nil {
		return nil, rep, err
	}

	wantYear := strconv.Itoa(year)
	seen := make(map[CountyKey]struct{}, len(t.Rows))
	records := make([]IncomePovertyRecord, 0, len(t.Rows))

	for i, row := range t.Rows {
		rep.Read++

		if t.Has("time") {
			if y := stripBrackets(t.Value(row, "time")); y != "" && y != wantYear {
				rep.exclude(ReasonOtherYear, "")
				continue
			}
		}

		income, err := parseNullable(stripBrackets(t.Value(row, "med_inc")), "null")
		if err != nil {
			return nil, rep, fmt.Errorf("income row %d med_inc: %w", i+1, err)
		}
		poverty, err := parseNullable(t.Value(row, "pov_rate"), "null")
		if err != nil {
			return nil, rep, fmt.Errorf("income row %d pov_rate: %w", i+1, err)
		}

		state := t.Value(row, "state")
		county := stripBrackets(t.Value(row, "fips_county"))
		key, err := NormalizeStateCounty(state, county)
		if err != nil {
			rep.exclude(ReasonMalformedKey, state+"|"+county)
			continue
		}
		if _, dup := seen[key]; dup {
			rep.exclude(ReasonDuplicateKey, string(key))
			continue
		}
		seen[key] = struct{}{}

		records = append(records, IncomePovertyRecord{
			Key:          key,
			CountyName:   t.Value(row, "county"),
			State:        key.State(),
			MedianIncome: income,
			PovertyRate:  poverty,
		})
	}

	rep.Kept = len(records)
	return records, rep, nil
}

// parseBracketedCSV reads the JSON-array-as-CSV body one line at a time so a
// stray quote on one line can never swallow the next. A bracketed body must
// consist of whole [...] lines and end with the closing ]].
func parseBracketedCSV(name string, body []byte) (*Table, error) {
	var header []string
	var rows [][]string
	var bracketed bool
	var last string

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSuffix(strings.TrimSpace(sc.Text()), ",")
		if line == "" {
			continue
		}
		if header == nil {
			bracketed = strings.HasPrefix(line, "[")
		}
		// Every row of the JSON-array form is a complete [...] element.
		if bracketed && (!strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]")) {
			return nil, fmt.Errorf("%w: truncated %s body at line %q", ErrSourceUnavailable, name, line)
		}
		last = line

		r := csv.NewReader(strings.NewReader(line))
		r.LazyQuotes = true
		r.FieldsPerRecord = -1
		fields, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("%w: malformed %s body: %v", ErrSourceUnavailable, name, err)
		}

		if header == nil {
			header = make([]string, len(fields))
			for i, f := range fields {
				h := stripBrackets(f)
				if renamed, ok := incomeColumns[h]; ok {
					h = renamed
				}
				header[i] = h
			}
			continue
		}
		rows = append(rows, fields)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s body: %v", ErrSourceUnavailable, name, err)
	}
	if header == nil {
		return nil, fmt.Errorf("%w: empty %s body", ErrSourceUnavailable, name)
	}
	if bracketed && !strings.HasSuffix(last, "]]") {
		return nil, fmt.Errorf("%w: truncated %s body: missing closing ]]", ErrSourceUnavailable, name)
	}

	return NewTable(name, header, rows), nil
}

var bracketReplacer = strings.NewReplacer("[", "", "]", "", `"`, "")

func stripBrackets(s string) string {
	return strings.TrimSpace(bracketReplacer.Replace(s))
}
