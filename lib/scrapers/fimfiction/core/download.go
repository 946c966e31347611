package core

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"fimfiction/lib/bundle"
	"fimfiction/lib/formatted"
	"fimfiction/lib/model"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

const (
	report_client_download        = "client.download"
	report_client_chapter_content = "client.chapter-content"
)

type DownloadFormat string

const (
	FormatText DownloadFormat = "txt"
	FormatHTML DownloadFormat = "html"
	FormatEPUB DownloadFormat = "epub"
)

// chapterBodySelector is where downloaded chapters keep their text, the
// whole body is used when it is missing.
const chapterBodySelector = "#chapter_container"

func (f DownloadFormat) query(param string, id int64) string {
	if f == FormatHTML {
		return fmt.Sprintf("?html&%s=%d", param, id)
	}
	return fmt.Sprintf("?%s=%d", param, id)
}

// DownloadURL returns where the whole story can be downloaded in format.
func (c *Client) DownloadURL(storyID int64, format DownloadFormat) (string, error) {
	base := c.BaseURL.String()
	switch format {
	case FormatText, FormatHTML:
		return base + c.Endpoints.StoryDownload + format.query("story", storyID), nil
	case FormatEPUB:
		return base + c.Endpoints.EPUBDownload + format.query("story", storyID), nil
	}
	return "", fmt.Errorf("unknown download format %q", format)
}

// ChapterDownloadURL returns where a single chapter can be downloaded,
// chapters are not available as epub.
func (c *Client) ChapterDownloadURL(chapterID int64, format DownloadFormat) (string, error) {
	switch format {
	case FormatText, FormatHTML:
		return c.BaseURL.String() + c.Endpoints.ChapterDownload + format.query("chapter", chapterID), nil
	}
	return "", fmt.Errorf("chapters cannot be downloaded as %q", format)
}

// Download streams the file at downloadURL into w.
func (c *Client) Download(ctx context.Context, downloadURL string, w io.Writer) (int64, error) {
	ctx, span := tracer.Start(ctx, "client:Download")
	defer span.End()

	span.SetAttributes(attribute.String("url", downloadURL))

	res, err := c.Http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(downloadURL)
	if err != nil {
		return 0, c.fail(span, report_client_download, fmt.Errorf("download: %w", err))
	}
	body := res.RawBody()
	defer body.Close()
	if res.IsError() {
		return 0, c.fail(span, report_client_download, fmt.Errorf("download: %w: %s", ErrUnexpectedResponse, res.Status()))
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return n, c.fail(span, report_client_download, fmt.Errorf("download: %w", err))
	}
	return n, nil
}

// ChapterContent downloads a chapter as html and returns a mutable copy
// of chapter with its content set.
func (c *Client) ChapterContent(ctx context.Context, chapter *bundle.Record) (*bundle.Record, error) {
	ctx, span := tracer.Start(ctx, "client:ChapterContent")
	defer span.End()

	id, err := bundle.Int(chapter, model.ChapterID)
	if err != nil {
		return nil, fmt.Errorf("chapter content: %w", err)
	}
	span.SetAttributes(attribute.Int64("chapter_id", id))
	downloadURL, err := c.ChapterDownloadURL(id, FormatHTML)
	if err != nil {
		return nil, err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(downloadURL)
	err = checkResponse(res, err)
	if err != nil {
		return nil, c.fail(span, report_client_chapter_content, fmt.Errorf("chapter content: %w", err))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, c.fail(span, report_client_chapter_content, fmt.Errorf("chapter content: %w", err))
	}
	container := doc.Find(chapterBodySelector).First()
	if container.Length() == 0 {
		container = doc.Find("body")
	}
	markup, err := container.Html()
	if err != nil {
		return nil, c.fail(span, report_client_chapter_content, fmt.Errorf("chapter content: %w", err))
	}
	content, err := formatted.ParseHTML(markup)
	if err != nil {
		return nil, c.fail(span, report_client_chapter_content, fmt.Errorf("chapter content: %w", err))
	}

	updated := chapter.ToMutableCopy()
	err = updated.Set(model.ChapterContent, content)
	if err != nil {
		return nil, fmt.Errorf("chapter content: %w", err)
	}
	return updated, nil
}
