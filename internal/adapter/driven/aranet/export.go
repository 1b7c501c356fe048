package aranet

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/aranetools/aranetcloud/internal/domain/model"
)

// decodeExport parses the semicolon-delimited history export. The cloud
// prefixes the payload with a one-line banner; exactly one line is skipped
// before the header row.
func decodeExport(r io.Reader) (*model.SensorExport, error) {
	br := bufio.NewReader(r)

	if _, err := br.ReadString('\n'); err != nil {
		if errors.Is(err, io.EOF) {
			// Either an empty payload or a banner with no rows behind it.
			return nil, errors.New("export has no header row")
		}
		return nil, fmt.Errorf("skip export banner: %w", err)
	}

	cr := csv.NewReader(br)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("export has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read export header: %w", err)
	}

	export := &model.SensorExport{Columns: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read export row %d: %w", len(export.Rows)+1, err)
		}
		export.Rows = append(export.Rows, row)
	}

	return export, nil
}
