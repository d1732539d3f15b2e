package matcher

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	tokenizers "github.com/daulet/tokenizers"
	ort "github.com/yalue/onnxruntime_go"
)

// Embedder is the injected capability the matcher uses to turn a query or
// chunk string into a dense vector. The core treats it as an abstract
// one-method collaborator so tests can supply a deterministic fake without
// loading a real model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// maxSeqLen caps tokenized input length; chunk windows are a handful of
// words so this is generous headroom, not a practical truncation risk.
const maxSeqLen = 128

// OnnxEmbedder embeds text with a sentence-embedding model running under
// ONNX Runtime, grounded on the same yalue/onnxruntime_go session pattern
// the pack's wakeword detector and VAD plugin use for their own models.
// Vectors are L2-normalized so cosine similarity reduces to a dot product.
type OnnxEmbedder struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *tokenizers.Tokenizer
	dim       int64
}

// NewOnnxEmbedder loads model.onnx and tokenizer.json from modelDir. ortLibPath
// points at the onnxruntime shared library; pass "" to use the system default
// search path.
func NewOnnxEmbedder(modelDir, ortLibPath string) (*OnnxEmbedder, error) {
	modelPath := filepath.Join(modelDir, "model.onnx")
	tokenPath := filepath.Join(modelDir, "tokenizer.json")

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("matcher: embedding model not found at %s: %w", modelPath, err)
	}
	if _, err := os.Stat(tokenPath); err != nil {
		return nil, fmt.Errorf("matcher: tokenizer not found at %s: %w", tokenPath, err)
	}

	if ortLibPath != "" {
		ort.SetSharedLibraryPath(ortLibPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("matcher: init onnx runtime: %w", err)
	}

	tk, err := tokenizers.FromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("matcher: load tokenizer: %w", err)
	}

	inputNames := []string{"input_ids", "attention_mask", "token_type_ids"}
	outputNames := []string{"last_hidden_state"}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, nil)
	if err != nil {
		tk.Close()
		return nil, fmt.Errorf("matcher: create onnx session: %w", err)
	}

	return &OnnxEmbedder{session: session, tokenizer: tk}, nil
}

// Close releases the ONNX session and tokenizer.
func (e *OnnxEmbedder) Close() error {
	if e.tokenizer != nil {
		e.tokenizer.Close()
	}
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

// Embed tokenizes text and runs a forward pass, returning the mean-pooled,
// L2-normalized last hidden state as the sentence vector.
func (e *OnnxEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	enc := e.tokenizer.EncodeWithOptions(text, true, tokenizers.WithReturnAttentionMask())
	ids := enc.IDs
	if len(ids) > maxSeqLen {
		ids = ids[:maxSeqLen]
	}
	seqLen := len(ids)
	if seqLen == 0 {
		return nil, fmt.Errorf("matcher: text tokenized to zero length")
	}

	idsFlat := make([]int64, seqLen)
	maskFlat := make([]int64, seqLen)
	typeFlat := make([]int64, seqLen)
	for i, v := range ids {
		idsFlat[i] = int64(v)
		maskFlat[i] = 1
		if i < len(enc.AttentionMask) {
			maskFlat[i] = int64(enc.AttentionMask[i])
		}
	}

	shape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewTensor(shape, idsFlat)
	if err != nil {
		return nil, fmt.Errorf("matcher: build input_ids tensor: %w", err)
	}
	defer inputIDs.Destroy()

	attnMask, err := ort.NewTensor(shape, maskFlat)
	if err != nil {
		return nil, fmt.Errorf("matcher: build attention_mask tensor: %w", err)
	}
	defer attnMask.Destroy()

	tokenType, err := ort.NewTensor(shape, typeFlat)
	if err != nil {
		return nil, fmt.Errorf("matcher: build token_type_ids tensor: %w", err)
	}
	defer tokenType.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{inputIDs, attnMask, tokenType}, outputs); err != nil {
		return nil, fmt.Errorf("matcher: run onnx session: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("matcher: unexpected onnx output type")
	}
	defer out.Destroy()

	data := out.GetData()
	if e.dim == 0 {
		e.dim = int64(len(data)) / int64(seqLen)
	}
	dim := int(e.dim)

	vec := meanPool(data, seqLen, dim, maskFlat)
	return l2Normalize(vec), nil
}

func meanPool(hidden []float32, seqLen, dim int, mask []int64) []float32 {
	sum := make([]float32, dim)
	var count float32
	for t := 0; t < seqLen; t++ {
		if mask[t] == 0 {
			continue
		}
		count++
		base := t * dim
		for d := 0; d < dim; d++ {
			sum[d] += hidden[base+d]
		}
	}
	if count == 0 {
		count = 1
	}
	for d := range sum {
		sum[d] /= count
	}
	return sum
}

func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(1 / math.Sqrt(sumSq))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * norm
	}
	return out
}
