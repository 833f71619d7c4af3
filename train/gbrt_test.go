package train

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
)

// syntheticDataset builds rows whose price is a noiseless function of the
// features, so any competent fit should beat the base-rate predictor by a
// wide margin.
func syntheticDataset(n int) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(7))
	matrix := make([][]float64, n)
	target := make([]float64, n)

	for i := 0; i < n; i++ {
		beds := float64(rng.Intn(5) + 1)
		baths := float64(rng.Intn(3) + 1)
		downtown := float64(rng.Intn(2))
		matrix[i] = []float64{downtown, 1 - downtown, beds, baths}
		target[i] = 300000 + 150000*beds + 80000*baths + 200000*downtown
	}

	return matrix, target
}

func rmse(model *GBRT, matrix [][]float64, target []float64) float64 {
	var sum float64
	for i, row := range matrix {
		diff := model.Predict(row) - target[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(target)))
}

func TestFit_LearnsSyntheticFunction(t *testing.T) {
	matrix, target := syntheticDataset(400)

	model, err := Fit(matrix, target, DefaultConfig())
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	baseOnly := &GBRT{Base: model.Base}
	baseErr := rmse(baseOnly, matrix, target)
	fitErr := rmse(model, matrix, target)

	if fitErr >= baseErr/4 {
		t.Fatalf("expected boosted model to beat the base rate: base RMSE %.0f, fit RMSE %.0f", baseErr, fitErr)
	}
}

func TestFit_Deterministic(t *testing.T) {
	matrix, target := syntheticDataset(100)
	cfg := DefaultConfig()
	cfg.Rounds = 20

	a, err := Fit(matrix, target, cfg)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	b, err := Fit(matrix, target, cfg)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	for i, row := range matrix {
		if a.Predict(row) != b.Predict(row) {
			t.Fatalf("row %d: same seed produced different predictions", i)
		}
	}
}

func TestFit_ValidatesInput(t *testing.T) {
	cfg := DefaultConfig()

	if _, err := Fit(nil, nil, cfg); err == nil {
		t.Fatal("expected error for empty matrix")
	}
	if _, err := Fit([][]float64{{1, 2}}, []float64{1, 2}, cfg); err == nil {
		t.Fatal("expected error for row/target length mismatch")
	}
	if _, err := Fit([][]float64{{1, 2}, {1}}, []float64{1, 2}, cfg); err == nil {
		t.Fatal("expected error for ragged matrix")
	}

	bad := cfg
	bad.Rounds = 0
	if _, err := Fit([][]float64{{1}}, []float64{1}, bad); err == nil {
		t.Fatal("expected error for zero rounds")
	}
}

func TestFit_ConstantTarget(t *testing.T) {
	matrix := [][]float64{{1, 0}, {0, 1}, {1, 1}, {0, 0}}
	target := []float64{500000, 500000, 500000, 500000}

	cfg := DefaultConfig()
	cfg.Rounds = 10
	cfg.MinLeaf = 1

	model, err := Fit(matrix, target, cfg)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}
	for _, row := range matrix {
		if got := model.Predict(row); math.Abs(got-500000) > 1e-6 {
			t.Fatalf("expected constant prediction 500000, got %f", got)
		}
	}
}

func TestModel_JSONRoundTrip(t *testing.T) {
	matrix, target := syntheticDataset(50)
	cfg := DefaultConfig()
	cfg.Rounds = 10

	model, err := Fit(matrix, target, cfg)
	if err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	data, err := json.Marshal(model)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored GBRT
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for i, row := range matrix {
		if got, want := restored.Predict(row), model.Predict(row); got != want {
			t.Fatalf("row %d: restored model predicts %f, original %f", i, got, want)
		}
	}
}
