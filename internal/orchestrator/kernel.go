package orchestrator

import (
	"context"
	"time"

	"brandintel/internal/apierr"
	"brandintel/internal/model"
)

// KernelResult is the response body for POST /v1/kernel.
type KernelResult struct {
	RunID  string      `json:"run_id"`
	Kernel model.Kernel `json:"kernel"`
	Meta   Meta         `json:"meta"`
}

// Kernel loads run_id, requires non-empty brand and competitorsAnalyzed
// slots, synthesizes the final competitive-intelligence kernel via the
// LLM, and persists it.
func (o *Orchestrator) Kernel(ctx context.Context, runID string) (*KernelResult, error) {
	start := time.Now()

	run, err := o.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Brand == nil || len(run.CompetitorsAnalyzed) == 0 {
		return nil, apierr.New(apierr.CodeUpstreamMissing, "brand summary and analyzed competitors are both required for kernel synthesis")
	}

	raw, err := o.llm.Call(ctx, "kernel-assembly", buildKernelPrompt(*run.Brand, run.CompetitorsAnalyzed))
	if err != nil {
		return nil, err
	}

	var kernel model.Kernel
	if err := decodeInto(raw, &kernel); err != nil {
		return nil, err
	}

	if err := o.store.SaveKernel(ctx, run.ID, kernel); err != nil {
		return nil, err
	}

	return &KernelResult{RunID: run.ID, Kernel: kernel, Meta: newMeta(start)}, nil
}
