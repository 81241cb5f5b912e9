package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/storyreelhq/storyreel/internal/core/domain"
)

// Narrow read-side views of the repositories; the exporter never mutates.
type ProjectSource interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
}

type ChapterSource interface {
	ListByProject(ctx context.Context, projectID string) ([]domain.Chapter, error)
}

type ParagraphSource interface {
	ListByChapter(ctx context.Context, chapterID string) ([]domain.Paragraph, error)
}

type SentenceSource interface {
	ListByParagraph(ctx context.Context, paragraphID string) ([]domain.Sentence, error)
}

// StoryboardExporter flattens a project's chapter hierarchy into one xlsx
// sheet per chapter: a row per sentence with its prompt, asset links and
// timing, ready for a video editor to work from.
type StoryboardExporter struct {
	projects   ProjectSource
	chapters   ChapterSource
	paragraphs ParagraphSource
	sentences  SentenceSource
}

func NewStoryboardExporter(
	projects ProjectSource,
	chapters ChapterSource,
	paragraphs ParagraphSource,
	sentences SentenceSource,
) *StoryboardExporter {
	return &StoryboardExporter{
		projects:   projects,
		chapters:   chapters,
		paragraphs: paragraphs,
		sentences:  sentences,
	}
}

var storyboardHeader = []string{
	"#", "Paragraph", "Sentence", "Image Prompt", "Image", "Audio", "Start (ms)", "Duration (ms)",
}

func (e *StoryboardExporter) Storyboard(ctx context.Context, projectID string) (io.WriterTo, string, error) {
	project, err := e.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, "", err
	}
	chapters, err := e.chapters.ListByProject(ctx, projectID)
	if err != nil {
		return nil, "", err
	}

	workbook := excelize.NewFile()
	defaultSheet := workbook.GetSheetName(0)

	for _, chapter := range chapters {
		if err := e.writeChapterSheet(ctx, workbook, chapter); err != nil {
			_ = workbook.Close()
			return nil, "", err
		}
	}

	// Drop the implicit first sheet once real sheets exist.
	if len(chapters) > 0 {
		_ = workbook.DeleteSheet(defaultSheet)
	}

	filename := fmt.Sprintf("%s-storyboard-%s.xlsx", sanitizeSheetName(project.Title), time.Now().UTC().Format("20060102"))
	return workbookWriterTo{workbook}, filename, nil
}

// workbookWriterTo adapts *excelize.File to io.WriterTo; excelize's
// WriteTo takes variadic options and so does not satisfy the interface
// directly.
type workbookWriterTo struct {
	workbook *excelize.File
}

func (w workbookWriterTo) WriteTo(dst io.Writer) (int64, error) {
	return w.workbook.WriteTo(dst)
}

func (e *StoryboardExporter) writeChapterSheet(ctx context.Context, workbook *excelize.File, chapter domain.Chapter) error {
	sheet := fmt.Sprintf("%d %s", chapter.ChapterNumber, sanitizeSheetName(chapter.Title))
	if len([]rune(sheet)) > 31 {
		sheet = string([]rune(sheet)[:31])
	}
	if _, err := workbook.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %q: %w", sheet, err)
	}

	if err := workbook.SetSheetRow(sheet, "A1", &storyboardHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	paragraphs, err := e.paragraphs.ListByChapter(ctx, chapter.ID)
	if err != nil {
		return err
	}

	row := 2
	startMs := 0
	line := 0
	for _, paragraph := range paragraphs {
		sentences, err := e.sentences.ListByParagraph(ctx, paragraph.ID)
		if err != nil {
			return err
		}
		for _, sentence := range sentences {
			line++
			cells := []any{
				line,
				paragraph.OrderIndex,
				sentence.Content,
				sentence.ImagePrompt,
				sentence.ImageURL,
				sentence.AudioURL,
				startMs,
				sentence.DurationMs,
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := workbook.SetSheetRow(sheet, cell, &cells); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			startMs += sentence.DurationMs
			row++
		}
	}
	return nil
}

// sanitizeSheetName strips the characters xlsx forbids in sheet names.
func sanitizeSheetName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "Sheet"
	}
	return string(out)
}
