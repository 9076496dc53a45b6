package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/reponseashimwe/ml-pipeline-database/internal/common/database"
	"github.com/reponseashimwe/ml-pipeline-database/internal/config"
	"github.com/reponseashimwe/ml-pipeline-database/internal/repository"
)

// Applies the embedded schema, or the statements of the SQL file given as the first argument.
func main() {
	statements := repository.SchemaStatements()
	source := "embedded schema"
	if len(os.Args) > 1 {
		content, err := os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("Failed to read migration file: %v", err)
		}
		statements = splitStatements(string(content))
		source = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Cannot connect to database: %v", err)
	}
	defer db.Close()

	fmt.Printf("Connected to database: %s, applying %s\n\n", cfg.Database.Database, source)

	for i, stmt := range statements {
		fmt.Printf("Executing statement %d/%d...\n", i+1, len(statements))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("Failed to execute statement %d: %v\nStatement: %s", i+1, err, stmt[:min(100, len(stmt))])
		}
	}

	fmt.Println("Migration completed successfully")
}

func splitStatements(sqlContent string) []string {
	var out []string
	for _, stmt := range strings.Split(sqlContent, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
