package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	rscpdf "rsc.io/pdf"

	"github.com/homevisit/homevisit/internal/capsule"
	"github.com/homevisit/homevisit/internal/domain/visit"
)

// ErrNoCapsuleFound reports an artifact with no embedded record: the file
// is not a readable PDF, or its metadata carries no capsule entry. A
// malformed capsule is reported as capsule.ErrCapsuleFormat instead.
var ErrNoCapsuleFound = errors.New("report: no embedded record found")

// Import extracts the embedded capsule from a rendered artifact and
// decodes it back into a Record. Role-specific post-processing is the
// caller's concern.
func Import(ra io.ReaderAt, size int64) (*visit.Record, error) {
	raw, err := extractCapsule(ra, size)
	if err != nil {
		return nil, err
	}
	rec, err := capsule.Decode(raw)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ImportBytes is a convenience wrapper over Import for in-memory artifacts.
func ImportBytes(data []byte) (*visit.Record, error) {
	return Import(bytes.NewReader(data), int64(len(data)))
}

// extractCapsule reads the Keywords entry of the PDF Info dictionary. The
// underlying PDF reader panics on some hostile inputs, so extraction runs
// behind a recover guard; any panic is reported as ErrNoCapsuleFound.
func extractCapsule(ra io.ReaderAt, size int64) (raw string, err error) {
	defer func() {
		if r := recover(); r != nil {
			raw = ""
			err = fmt.Errorf("%w: unreadable artifact: %v", ErrNoCapsuleFound, r)
		}
	}()

	reader, rdErr := rscpdf.NewReader(ra, size)
	if rdErr != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCapsuleFound, rdErr)
	}

	info := reader.Trailer().Key("Info")
	if info.Kind() != rscpdf.Dict {
		return "", fmt.Errorf("%w: artifact has no metadata dictionary", ErrNoCapsuleFound)
	}
	kw := info.Key("Keywords")
	if kw.Kind() != rscpdf.String {
		return "", fmt.Errorf("%w: metadata entry is absent", ErrNoCapsuleFound)
	}
	raw = kw.RawString()
	if raw == "" {
		return "", fmt.Errorf("%w: metadata entry is empty", ErrNoCapsuleFound)
	}
	return raw, nil
}
