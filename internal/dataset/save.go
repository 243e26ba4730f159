package dataset

import (
	"bufio"
	"encoding/gob"
	"os"

	"github.com/ChizhovVadim/phonetrain/internal/domain"
	"github.com/pkg/errors"
)

func Save(path string, utterances []domain.Utterance) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	var w = bufio.NewWriter(file)
	err = gob.NewEncoder(w).Encode(utterances)
	if err != nil {
		return errors.Wrapf(err, "encode %v", path)
	}
	if err = w.Flush(); err != nil {
		return errors.WithStack(err)
	}
	return file.Close()
}

func SavePartitions(paths Paths, p Partitions) error {
	for _, item := range []struct {
		path       string
		utterances []domain.Utterance
	}{
		{paths.Train, p.Train},
		{paths.Val, p.Val},
		{paths.Test, p.Test},
	} {
		if err := Save(item.path, item.utterances); err != nil {
			return err
		}
	}
	return nil
}
