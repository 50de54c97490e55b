package main

import (
	"log"
	"os"

	"growny-ai-be/internal/model"
	"growny-ai-be/pkg/database"

	"github.com/joho/godotenv"
)

// matchTasksSQL is the similarity search used by the task repository.
// similarity = 1 - cosine distance; rows without an embedding never match.
const matchTasksSQL = `
CREATE OR REPLACE FUNCTION match_tasks(
	query_embedding vector(768),
	match_threshold float,
	match_count int,
	filter_owner_id text
)
RETURNS TABLE (
	id bigint,
	owner_id text,
	raw_text text,
	content text,
	category varchar,
	priority varchar,
	due_date date,
	created_at timestamptz,
	similarity float
)
LANGUAGE sql STABLE
AS $$
	SELECT
		t.id,
		t.owner_id,
		t.raw_text,
		t.content,
		t.category,
		t.priority,
		t.due_date,
		t.created_at,
		1 - (t.embedding <=> query_embedding) AS similarity
	FROM tasks t
	WHERE t.embedding IS NOT NULL
		AND t.owner_id = filter_owner_id
		AND 1 - (t.embedding <=> query_embedding) > match_threshold
	ORDER BY t.embedding <=> query_embedding
	LIMIT match_count;
$$;`

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Enabling pgvector...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		log.Fatalf("Error: Failed to enable vector extension: %v", err)
	}

	log.Println("Step 2: Running AutoMigrate for tasks...")
	if err := db.AutoMigrate(&model.Task{}); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating vector index and match_tasks...")
	postSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_tasks_embedding ON tasks USING hnsw (embedding vector_cosine_ops);`,
		matchTasksSQL,
	}
	for _, sql := range postSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Fatalf("Error: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Migration completed successfully.")
}
