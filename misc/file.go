package misc

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrNoFilename = errors.New("no filename supplied")

func ReadFile(fileName string) ([]byte, error) {
	if fileName == "" {
		return nil, ErrNoFilename
	}
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", fileName, err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", fileName, err)
	}
	return fileBytes, nil
}

// WriteFile creates or truncates fileName and writes contents to it. The file is closed before returning so a
// failed flush is reported as an error rather than lost.
func WriteFile(fileName string, contents []byte) (int, error) {
	if fileName == "" {
		return 0, ErrNoFilename
	}
	file, err := os.Create(fileName)
	if err != nil {
		return 0, fmt.Errorf("unable to create file %s: %w", fileName, err)
	}
	bytesWritten, err := file.Write(contents)
	if err != nil {
		file.Close()
		return bytesWritten, fmt.Errorf("unable to write file %s: %w", fileName, err)
	}
	if err = file.Close(); err != nil {
		return bytesWritten, fmt.Errorf("unable to close file %s: %w", fileName, err)
	}
	return bytesWritten, nil
}
