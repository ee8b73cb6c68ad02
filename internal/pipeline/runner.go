package pipeline

import (
	"context"
	"fmt"

	"server/internal/domain"
	"server/internal/providers/conceptart"
	"server/internal/providers/meshy"
	"server/internal/providers/prompt"
)

// ConceptArtOutput is what stage one hands to stage two.
type ConceptArtOutput struct {
	ImageURL string
	Data     []byte
	MIME     string
}

// ModelOutput is what stage two hands to stage three.
type ModelOutput struct {
	TaskID   string
	ModelURL string
}

// ProcessOutput is the final stage result used to populate the job's result
// payload.
type ProcessOutput struct {
	ModelURL  string
	Rigged    bool
	Retexture bool
	SpriteURL string
}

// StageRunner performs the vendor work of each ordered stage. Every call is
// an opaque, fallible operation; any returned error fails the whole pipeline.
type StageRunner interface {
	ConceptArt(ctx context.Context, job *domain.PipelineJob) (*ConceptArtOutput, error)
	Model3D(ctx context.Context, job *domain.PipelineJob, art *ConceptArtOutput) (*ModelOutput, error)
	PostProcess(ctx context.Context, job *domain.PipelineJob, model *ModelOutput) (*ProcessOutput, error)
}

// VendorRunner implements StageRunner against the real vendor clients.
type VendorRunner struct {
	ConceptArtClient *conceptart.Client
	MeshyClient      *meshy.Client
}

// ConceptArt generates the 2D reference image for the asset.
func (r *VendorRunner) ConceptArt(ctx context.Context, job *domain.PipelineJob) (*ConceptArtOutput, error) {
	res, err := r.ConceptArtClient.Generate(ctx, conceptart.Request{
		Prompt:     prompt.ConceptArt(job.Config),
		Style:      job.Config.Style,
		PipelineID: job.PipelineID,
	})
	if err != nil {
		return nil, vendorError("concept art", err)
	}
	return &ConceptArtOutput{ImageURL: res.ImageURL, Data: res.Data, MIME: res.MIME}, nil
}

// Model3D turns the concept art into a 3D model.
func (r *VendorRunner) Model3D(ctx context.Context, job *domain.PipelineJob, art *ConceptArtOutput) (*ModelOutput, error) {
	req := meshy.ModelRequest{
		Prompt:     prompt.Model3D(job.Config),
		Style:      job.Config.Style,
		Quality:    job.Config.Quality,
		PipelineID: job.PipelineID,
	}
	// Image-to-3d only works with a fetchable reference; synthetic URLs fall
	// back to text-to-3d.
	if art != nil && art.ImageURL != "" && !isSynthetic(art.ImageURL) {
		req.ImageURL = art.ImageURL
	}
	res, err := r.MeshyClient.GenerateModel(ctx, req)
	if err != nil {
		return nil, vendorError("3d model", err)
	}
	return &ModelOutput{TaskID: res.TaskID, ModelURL: res.ModelURL}, nil
}

// PostProcess applies the optional refinement sub-tasks selected by the
// config's feature flags. Flags that are off cost nothing.
func (r *VendorRunner) PostProcess(ctx context.Context, job *domain.PipelineJob, model *ModelOutput) (*ProcessOutput, error) {
	out := &ProcessOutput{ModelURL: model.ModelURL}
	taskID := model.TaskID

	if job.Config.Rig {
		res, err := r.MeshyClient.Rig(ctx, meshy.RefineRequest{
			TaskID:     taskID,
			ModelURL:   out.ModelURL,
			PipelineID: job.PipelineID,
		})
		if err != nil {
			return nil, vendorError("rigging", err)
		}
		taskID = res.TaskID
		out.ModelURL = res.ModelURL
		out.Rigged = true
	}
	if job.Config.Retexture {
		res, err := r.MeshyClient.Retexture(ctx, meshy.RefineRequest{
			TaskID:     taskID,
			ModelURL:   out.ModelURL,
			PipelineID: job.PipelineID,
		})
		if err != nil {
			return nil, vendorError("retexture", err)
		}
		out.ModelURL = res.ModelURL
		out.Retexture = true
	}
	if job.Config.Sprites {
		// Sprite sheets are rendered server-side from the concept art, not by
		// a vendor; only the reference is recorded here.
		out.SpriteURL = fmt.Sprintf("sprites/%s.png", job.PipelineID)
	}
	return out, nil
}

// vendorError tags a stage failure so callers can tell vendor faults apart
// from internal ones while keeping the cause's message in the job record.
func vendorError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrVendorFailure, err)
}

func isSynthetic(url string) bool {
	return len(url) >= 12 && url[:12] == "synthetic://"
}

var _ StageRunner = (*VendorRunner)(nil)
