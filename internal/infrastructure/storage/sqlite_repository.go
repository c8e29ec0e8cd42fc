package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"TriadNews/internal/domain"
	"TriadNews/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL,
	original_title TEXT NOT NULL,
	original_summary TEXT,
	url TEXT NOT NULL UNIQUE,
	pub_date TEXT,
	fetched_at TEXT DEFAULT (datetime('now')),
	analyzed_at TEXT,
	transformed_title TEXT,
	category TEXT,
	thesis_label TEXT,
	thesis_text TEXT,
	antithesis_label TEXT,
	antithesis_text TEXT,
	synthesis_label TEXT,
	synthesis_text TEXT,
	key_insight TEXT,
	harmony_score INTEGER,
	original_content TEXT,
	transformed_content TEXT,
	language TEXT DEFAULT 'sl'
);

CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source_id);
CREATE INDEX IF NOT EXISTS idx_articles_date ON articles(pub_date DESC);
CREATE INDEX IF NOT EXISTS idx_articles_analyzed ON articles(analyzed_at);
`

var articleColumns = []string{
	"id", "source_id", "original_title", "original_summary", "url", "pub_date",
	"fetched_at", "analyzed_at", "transformed_title", "category",
	"thesis_label", "thesis_text", "antithesis_label", "antithesis_text",
	"synthesis_label", "synthesis_text", "key_insight", "harmony_score",
	"original_content", "transformed_content", "language",
}

// englishSources maps source ids to the "en" language tag at insert
// time; everything else is stored as "sl".
var englishSources = map[string]bool{
	"fox-news": true,
	"cnn":      true,
}

// SQLiteRepository is the system of record for articles and their
// enrichment state, backed by a single local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*SQLiteRepository)(nil)

// Open connects to the datastore at path and prepares the schema.
func Open(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return repo, nil
}

// NewSQLiteRepository wires an existing connection and applies pragmas
// plus schema up front, so no query ever races lazy initialization.
func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close releases the underlying connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// InsertBatch stores a batch of fetched items inside one transaction,
// ignoring rows whose URL-derived id already exists. It returns the
// count of rows actually inserted, so re-fetching the same feeds
// reports zero new articles.
func (r *SQLiteRepository) InsertBatch(ctx context.Context, items []domain.FeedItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO articles
		(id, source_id, original_title, original_summary, url, pub_date, language)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, item := range items {
		res, err := stmt.ExecContext(ctx,
			domain.ArticleID(item.Link),
			item.Source,
			item.Title,
			nullableString(item.Summary),
			item.Link,
			nullableString(item.PubDate),
			languageFor(item.Source),
		)
		if err != nil {
			return 0, fmt.Errorf("insert article %s: %w", item.Link, err)
		}

		changed, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(changed)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return inserted, nil
}

// GetByID returns the full row or ErrNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (domain.Article, error) {
	query, args, err := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build query: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article: %w", err)
	}

	return article, nil
}

// SaveContent stores scraped full text for later enrichment calls.
func (r *SQLiteRepository) SaveContent(ctx context.Context, id, content string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE articles SET original_content = ? WHERE id = ?`, content, id)
	if err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	return nil
}

// SaveAnalysis writes every enrichment field plus the analyzed_at
// timestamp in a single statement, keeping the all-or-nothing invariant.
func (r *SQLiteRepository) SaveAnalysis(ctx context.Context, id string, analysis domain.TriadAnalysis) error {
	res, err := r.db.ExecContext(ctx, `UPDATE articles SET
		analyzed_at = datetime('now'),
		transformed_title = ?,
		transformed_content = ?,
		category = ?,
		thesis_label = ?,
		thesis_text = ?,
		antithesis_label = ?,
		antithesis_text = ?,
		synthesis_label = ?,
		synthesis_text = ?,
		key_insight = ?,
		harmony_score = ?
		WHERE id = ?`,
		analysis.TransformedTitle,
		nullableString(analysis.TransformedContent),
		analysis.Category,
		analysis.Thesis.Label,
		analysis.Thesis.Text,
		analysis.Antithesis.Label,
		analysis.Antithesis.Text,
		analysis.Synthesis.Label,
		analysis.Synthesis.Text,
		analysis.KeyInsight,
		analysis.HarmonyScore,
		id,
	)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	changed, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if changed == 0 {
		return ports.ErrNotFound
	}

	return nil
}

// List returns one page of matching articles plus the total count
// computed from the same predicate. Undated scanned items stay in
// deterministic recency order via the fetched_at tiebreaker.
func (r *SQLiteRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Article, int, error) {
	predicate := filterPredicate(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query, args, err := sq.Select(articleColumns...).
		From("articles").
		Where(predicate).
		OrderBy("pub_date DESC", "fetched_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := []domain.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration: %w", err)
	}

	countQuery, countArgs, err := sq.Select("COUNT(*)").
		From("articles").
		Where(predicate).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	return articles, total, nil
}

// RecentAnalysisCount counts enrichments inside a trailing window of
// the given hours; the analyze rate limit reads from it.
func (r *SQLiteRepository) RecentAnalysisCount(ctx context.Context, hours int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE analyzed_at > datetime('now', ? || ' hours')`,
		fmt.Sprintf("-%d", hours),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent analyses: %w", err)
	}
	return count, nil
}

// Categories lists the distinct category labels seen so far.
func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM articles WHERE category IS NOT NULL ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return categories, nil
}

// TotalCount returns the total number of stored articles.
func (r *SQLiteRepository) TotalCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

// UnanalyzedCount returns how many articles still await enrichment.
func (r *SQLiteRepository) UnanalyzedCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE analyzed_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unanalyzed: %w", err)
	}
	return count, nil
}

// filterPredicate translates a ListFilter into a conjunctive squirrel
// predicate shared by the page and count queries.
func filterPredicate(filter domain.ListFilter) sq.And {
	predicate := sq.And{}

	if filter.Source != "" {
		predicate = append(predicate, sq.Eq{"source_id": filter.Source})
	}
	if filter.Category != "" {
		predicate = append(predicate, sq.Eq{"category": filter.Category})
	}
	if filter.Analyzed != nil {
		if *filter.Analyzed {
			predicate = append(predicate, sq.Expr("analyzed_at IS NOT NULL"))
		} else {
			predicate = append(predicate, sq.Expr("analyzed_at IS NULL"))
		}
	}
	if filter.Search != "" {
		term := "%" + filter.Search + "%"
		predicate = append(predicate, sq.Or{
			sq.Like{"original_title": term},
			sq.Like{"transformed_title": term},
			sq.Like{"key_insight": term},
		})
	}

	return predicate
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article            domain.Article
		originalSummary    sql.NullString
		pubDate            sql.NullString
		analyzedAt         sql.NullString
		transformedTitle   sql.NullString
		category           sql.NullString
		thesisLabel        sql.NullString
		thesisText         sql.NullString
		antithesisLabel    sql.NullString
		antithesisText     sql.NullString
		synthesisLabel     sql.NullString
		synthesisText      sql.NullString
		keyInsight         sql.NullString
		harmonyScore       sql.NullInt64
		originalContent    sql.NullString
		transformedContent sql.NullString
	)

	err := row.Scan(
		&article.ID, &article.SourceID, &article.OriginalTitle, &originalSummary,
		&article.URL, &pubDate, &article.FetchedAt, &analyzedAt,
		&transformedTitle, &category, &thesisLabel, &thesisText,
		&antithesisLabel, &antithesisText, &synthesisLabel, &synthesisText,
		&keyInsight, &harmonyScore, &originalContent, &transformedContent,
		&article.Language,
	)
	if err != nil {
		return domain.Article{}, err
	}

	article.OriginalSummary = stringPtr(originalSummary)
	article.PubDate = stringPtr(pubDate)
	article.AnalyzedAt = stringPtr(analyzedAt)
	article.TransformedTitle = stringPtr(transformedTitle)
	article.Category = stringPtr(category)
	article.ThesisLabel = stringPtr(thesisLabel)
	article.ThesisText = stringPtr(thesisText)
	article.AntithesisLabel = stringPtr(antithesisLabel)
	article.AntithesisText = stringPtr(antithesisText)
	article.SynthesisLabel = stringPtr(synthesisLabel)
	article.SynthesisText = stringPtr(synthesisText)
	article.KeyInsight = stringPtr(keyInsight)
	article.OriginalContent = stringPtr(originalContent)
	article.TransformedContent = stringPtr(transformedContent)
	if harmonyScore.Valid {
		score := int(harmonyScore.Int64)
		article.HarmonyScore = &score
	}

	return article, nil
}

func languageFor(sourceID string) string {
	if englishSources[sourceID] {
		return "en"
	}
	return "sl"
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
