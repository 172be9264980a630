package database

var schema = []string{
	`CREATE TABLE IF NOT EXISTS papers (
		id SERIAL PRIMARY KEY,
		arxiv_id TEXT NOT NULL,
		title TEXT NOT NULL,
		abstract TEXT,
		pdf_url TEXT,
		published TIMESTAMPTZ,
		primary_category TEXT,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS authors (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS paper_authors (
		paper_id INTEGER REFERENCES papers(id) ON DELETE CASCADE,
		author_id INTEGER REFERENCES authors(id) ON DELETE CASCADE,
		author_order INTEGER,
		PRIMARY KEY (paper_id, author_id)
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS paper_categories (
		paper_id INTEGER REFERENCES papers(id) ON DELETE CASCADE,
		category_id INTEGER REFERENCES categories(id) ON DELETE CASCADE,
		PRIMARY KEY (paper_id, category_id)
	)`,
}

// uniqueConstraints back the ON CONFLICT targets of the upserts. Tables
// created by older importers may lack them.
var uniqueConstraints = []struct {
	table, column, name string
}{
	{"papers", "arxiv_id", "papers_arxiv_id_key"},
	{"authors", "name", "authors_name_key"},
	{"categories", "name", "categories_name_key"},
}

const (
	upsertPaperSQL = `
		INSERT INTO papers (arxiv_id, title, abstract, pdf_url, published, primary_category, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (arxiv_id) DO UPDATE SET
			title = EXCLUDED.title,
			abstract = EXCLUDED.abstract,
			pdf_url = EXCLUDED.pdf_url,
			published = EXCLUDED.published,
			primary_category = EXCLUDED.primary_category,
			updated_at = NOW()
		RETURNING id`

	upsertAuthorSQL = `
		INSERT INTO authors (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	linkAuthorSQL = `
		INSERT INTO paper_authors (paper_id, author_id, author_order) VALUES ($1, $2, $3)
		ON CONFLICT (paper_id, author_id) DO UPDATE SET author_order = EXCLUDED.author_order`

	upsertCategorySQL = `
		INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	linkCategorySQL = `
		INSERT INTO paper_categories (paper_id, category_id) VALUES ($1, $2)
		ON CONFLICT (paper_id, category_id) DO NOTHING`

	constraintExistsSQL = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.table_constraints
			WHERE table_name = $1 AND constraint_name = $2
		)`
)
