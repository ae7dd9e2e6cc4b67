package format

import (
	"log/slog"
	"strings"

	"lcm-hq/intellimap/pkg/jsonscan"
	"lcm-hq/intellimap/pkg/records"
)

// Parser combines detection and decoding.
type Parser struct {
	scanner  *jsonscan.Scanner
	logger   *slog.Logger
	detector *Detector
	decoders map[Format]Decoder
}

// Option configures a Parser.
type Option func(*Parser)

// WithBlacklist replaces the bare-token blacklist used by JSON detection.
func WithBlacklist(tokens []string) Option {
	return func(p *Parser) {
		p.scanner = jsonscan.New(tokens)
	}
}

// WithScanner sets the scanner used by JSON detection.
func WithScanner(s *jsonscan.Scanner) Option {
	return func(p *Parser) {
		if s != nil {
			p.scanner = s
		}
	}
}

// WithLogger sets the logger used for decode diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDecoder overrides the decoder for one format. For the JSON formats
// the same decoder is registered for both objects and arrays.
func WithDecoder(f Format, d Decoder) Option {
	return func(p *Parser) {
		if f.IsJSON() {
			p.decoders[FormatJSONObject] = d
			p.decoders[FormatJSONArray] = d
			return
		}
		p.decoders[f] = d
	}
}

// NewParser creates a Parser with the default detector and decoders.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		scanner:  jsonscan.New(nil),
		logger:   slog.Default(),
		decoders: make(map[Format]Decoder),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.detector = NewDetector(p.scanner)
	defaults := map[Format]Decoder{
		FormatJSONObject:          NewJSONDecoder(p.logger),
		FormatJSONArray:           NewJSONDecoder(p.logger),
		FormatDelimitedDictionary: NewDelimitedDecoder(p.logger),
		FormatKeyValueLines:       DecoderFunc(DecodeKeyValueLines),
	}
	for f, d := range defaults {
		if _, ok := p.decoders[f]; !ok {
			p.decoders[f] = d
		}
	}
	return p
}

// Scanner returns the scanner used for JSON checks.
func (p *Parser) Scanner() *jsonscan.Scanner {
	return p.scanner
}

// Detect classifies text without decoding it.
func (p *Parser) Detect(text string) (Format, error) {
	return p.detector.Detect(text)
}

// Parse detects the format of text and decodes it into records.
func (p *Parser) Parse(text string) (Format, []*records.Record, error) {
	f, err := p.detector.Detect(text)
	if err != nil {
		return FormatUnknown, nil, err
	}

	dec, ok := p.decoders[f]
	if !ok {
		return f, nil, newFormatError(ErrUnsupported, f, "no decoder registered", nil)
	}

	recs, err := dec.Decode(strings.TrimSpace(text))
	if err != nil {
		return f, nil, err
	}
	if len(recs) == 0 {
		return f, nil, newFormatError(ErrNoFieldsFound, f, "no records decoded", nil)
	}

	p.logger.Debug("parsed input", "format", f.String(), "records", len(recs))
	return f, recs, nil
}

// ParseInput decodes any RawInput. Structured mappings skip detection.
func (p *Parser) ParseInput(in records.RawInput) (Format, []*records.Record, error) {
	if in.Kind() == records.KindText {
		return p.Parse(in.Text())
	}

	maps := in.Maps()
	if len(maps) == 0 {
		return FormatStructured, nil, newFormatError(ErrEmptyInput, FormatStructured, "", nil)
	}
	out := make([]*records.Record, 0, len(maps))
	for _, m := range maps {
		out = append(out, records.FromMapValue(m))
	}
	return FormatStructured, out, nil
}
