package ocr

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/feichai0017/document-search/config"
	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
)

var _ Extractor = (*TextractExtractor)(nil)

type textractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// TextractExtractor calls AWS Textract DetectDocumentText. Each PAGE block
// becomes one page with a single block holding its LINE children.
type TextractExtractor struct {
	client        textractAPI
	minConfidence float32
	logger        logger.Logger
}

func NewTextractExtractor(ctx context.Context, cfg *config.TextractConfig, log logger.Logger) (*TextractExtractor, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := textract.NewFromConfig(awsCfg, func(o *textract.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &TextractExtractor{
		client:        client,
		minConfidence: float32(cfg.MinConfidence),
		logger:        log,
	}, nil
}

func (e *TextractExtractor) Name() string { return EngineTextract }

func (e *TextractExtractor) Extract(ctx context.Context, page []byte) (*models.OCRDocument, error) {
	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: page},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect document text: %w", err)
	}
	return e.toDocument(out.Blocks), nil
}

func (e *TextractExtractor) toDocument(blocks []types.Block) *models.OCRDocument {
	byID := make(map[string]types.Block, len(blocks))
	for _, b := range blocks {
		if b.Id != nil {
			byID[*b.Id] = b
		}
	}

	doc := &models.OCRDocument{Engine: e.Name()}
	for _, b := range blocks {
		if b.BlockType != types.BlockTypePage {
			continue
		}
		var block models.OCRBlock
		for _, lineBlock := range children(b, byID, types.BlockTypeLine) {
			var line models.OCRLine
			for _, w := range children(lineBlock, byID, types.BlockTypeWord) {
				if w.Text == nil || aws.ToFloat32(w.Confidence) < e.minConfidence {
					continue
				}
				line.Words = append(line.Words, models.OCRWord{
					Value:      *w.Text,
					Confidence: float64(aws.ToFloat32(w.Confidence)),
				})
			}
			if len(line.Words) > 0 {
				block.Lines = append(block.Lines, line)
			}
		}
		doc.Pages = append(doc.Pages, models.OCRPage{Blocks: []models.OCRBlock{block}})
	}
	return doc
}

// children returns the CHILD blocks of parent with the given type, in
// relationship order.
func children(parent types.Block, byID map[string]types.Block, want types.BlockType) []types.Block {
	var out []types.Block
	for _, rel := range parent.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			if b, ok := byID[id]; ok && b.BlockType == want {
				out = append(out, b)
			}
		}
	}
	return out
}
