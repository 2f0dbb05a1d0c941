package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
)

func TestLoadScoredDatasetSkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.csv")
	// 第二行列数不齐，第三行特征列不是数字；后面的好行都必须留下来
	csvData := "ph,prediction,Potability\n" +
		"5.0,1,1\n" +
		"6.1,0\n" +
		"not-a-number,1,1\n" +
		"9.0,0,0\n"
	if err := os.WriteFile(path, []byte(csvData), 0o644); err != nil {
		t.Fatalf("seed csv: %v", err)
	}

	ds, err := loadScoredDataset(path, "prediction", "Potability", []string{"ph"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(ds.predictions) != 2 || len(ds.labels) != 2 {
		t.Fatalf("rows after a bad row must survive: got %d rows", len(ds.predictions))
	}
	got := ds.features["ph"]
	if len(got) != 2 || got[0] != 5.0 || got[1] != 9.0 {
		t.Fatalf("feature column wrong: %v", got)
	}
	if ds.predictions[1] != 0 || ds.labels[1] != 0 {
		t.Fatalf("last row misparsed: preds=%v labels=%v", ds.predictions, ds.labels)
	}
}

func TestLoadScoredDatasetNoUsableRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.csv")
	csvData := "ph,prediction,Potability\n" +
		"5.0,1\n" +
		"x,y,z\n"
	if err := os.WriteFile(path, []byte(csvData), 0o644); err != nil {
		t.Fatalf("seed csv: %v", err)
	}

	_, err := loadScoredDataset(path, "prediction", "Potability", []string{"ph"})
	if !apperrors.Is(err, apperrors.ErrMalformedData) {
		t.Fatalf("expected malformed data, got %v", err)
	}
}
