package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	chiTransport "github.com/kailas-cloud/critweight/internal/transport/chi"
	weightsuc "github.com/kailas-cloud/critweight/internal/usecase/weights"
)

// computeOutput mirrors the HTTP response without the per-request envelope fields.
type computeOutput struct {
	Weights             []chiTransport.CriteriaWeight `json:"weights"`
	MetricUsed          string                        `json:"metric_used"`
	NormalizationMethod string                        `json:"normalization_method"`
	UniformFallback     bool                          `json:"uniform_fallback"`
}

func computeCommand(c *cli.Context) error {
	req, err := readVectorsRequest(c.String("file"), c.App.Reader)
	if err != nil {
		return err
	}

	svc := weightsuc.New(nil, nil, weightsuc.DefaultParams(), 0, nil)
	out, err := svc.CalculateVectors(c.Context, weightsuc.VectorsRequest{
		Query:   req.QueryVector,
		Vectors: req.CriterionVectors,
		Labels:  req.Labels,
		Metric:  req.Metric,
		Method:  firstNonEmpty(req.Normalization, req.NormalizationMethod),
		Overrides: weightsuc.Overrides{
			MinWeight:     req.MinWeight,
			MaxWeight:     req.MaxWeight,
			RoundDecimals: req.RoundDecimals,
		},
	})
	if err != nil {
		return fmt.Errorf("compute weights: %w", err)
	}

	res := computeOutput{
		Weights:             chiTransport.WeightsToDTO(out.Results),
		MetricUsed:          string(out.Metric),
		NormalizationMethod: string(out.Method),
		UniformFallback:     out.Uniform,
	}

	enc := json.NewEncoder(c.App.Writer)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func readVectorsRequest(path string, stdin io.Reader) (chiTransport.CalculateVectorsRequest, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return chiTransport.CalculateVectorsRequest{}, fmt.Errorf("open request: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var req chiTransport.CalculateVectorsRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return chiTransport.CalculateVectorsRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
