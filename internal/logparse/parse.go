// Package logparse reads raw solver logs into a job header and error entries.
package logparse

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/solverwatch/pkg/models"
)

// ErrFormat is returned when a log does not follow the solver's layout.
var ErrFormat = errors.New("invalid solver log format")

// TimestampLayout is the timestamp format at the start of every entry line.
const TimestampLayout = "2006-01-02 15:04:05.000"

const maxLineBytes = 1 << 20

var (
	jobInfoPattern = regexp.MustCompile(`JobInfo\(.*?\bid='([^']*)'.*?\bname='([^']*)'.*?\bqueue='([^']*)'.*?\bn=(\d+).*?\bnodes=\[(.*)\].*\)`)
	paramsPattern  = regexp.MustCompile(`\{.*\}`)
	entryPattern   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}).*?l=([\d.e+-]+).*?iter=(\d+).*?err=\{ u=([\d.e+-]+) phi=([\d.e+-]+)`)
)

// Result is a parsed log.
type Result struct {
	Job     models.Job
	Entries []models.LogEntry
	// Skipped counts lines after the header that were not entries.
	Skipped int
}

// Parse reads a solver log. The first line must hold the JobInfo header, the
// second may hold a JSON parameter object, and every later line matching the
// entry pattern becomes one LogEntry. Other lines are skipped.
func Parse(r io.Reader) (*Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	if !sc.Scan() {
		return nil, scanErr(sc, "missing job info line")
	}
	job, err := parseJobInfo(sc.Text())
	if err != nil {
		return nil, err
	}

	if !sc.Scan() {
		return nil, scanErr(sc, "missing parameters line")
	}
	job.Parameters = parseParameters(sc.Text())

	res := &Result{Job: *job}
	line := 2
	for sc.Scan() {
		line++
		text := sc.Text()
		m := entryPattern.FindStringSubmatch(text)
		if m == nil {
			res.Skipped++
			continue
		}
		e, err := parseEntry(m)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		res.Entries = append(res.Entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("%w: no error log entries", ErrFormat)
	}
	return res, nil
}

func scanErr(sc *bufio.Scanner, msg string) error {
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read log: %w", err)
	}
	return fmt.Errorf("%w: %s", ErrFormat, msg)
}

func parseJobInfo(line string) (*models.Job, error) {
	m := jobInfoPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, fmt.Errorf("%w: cannot parse job info", ErrFormat)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: job id %q is not a number", ErrFormat, m[1])
	}
	n, err := strconv.ParseInt(m[4], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: cpu count %q: %v", ErrFormat, m[4], err)
	}
	return &models.Job{
		ID:     id,
		Name:   m[2],
		Queue:  m[3],
		NumCPU: int32(n),
		Nodes:  parseNodes(m[5]),
	}, nil
}

func parseNodes(s string) []string {
	nodes := []string{}
	for _, part := range strings.Split(s, ",") {
		node := strings.Trim(part, " '")
		if node != "" {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// parseParameters extracts the {...} object on the parameters line. Objects
// that are not valid JSON are dropped because the column is jsonb.
func parseParameters(line string) json.RawMessage {
	raw := paramsPattern.FindString(line)
	if raw == "" || !json.Valid([]byte(raw)) {
		return nil
	}
	return json.RawMessage(raw)
}

func parseEntry(m []string) (models.LogEntry, error) {
	ts, err := time.Parse(TimestampLayout, m[1])
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("timestamp: %w", err)
	}
	load, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("load: %w", err)
	}
	iter, err := strconv.ParseInt(m[3], 10, 32)
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("iter: %w", err)
	}
	u, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("error_u: %w", err)
	}
	phi, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("error_phi: %w", err)
	}
	return models.LogEntry{Timestamp: ts, Load: load, Iter: int32(iter), ErrorU: u, ErrorPhi: phi}, nil
}
