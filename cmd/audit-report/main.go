package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Wedkamikazi/tmsxo-backend/internal/infrastructure/config"
)

func main() {
	var (
		dbPath     string
		configFile string
		limit      int
	)
	flag.StringVar(&dbPath, "db", "", "Path to database file (uses config if not specified)")
	flag.StringVar(&configFile, "config", "config.yaml", "Configuration file path")
	flag.IntVar(&limit, "limit", 10, "Rows per section")
	flag.Parse()

	if dbPath == "" {
		cfg := config.LoadOrEnvWithPath(configFile)
		dbPath = cfg.Storage.DatabasePath
		if dbPath == "" {
			dbPath = "tmsxo.db"
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	fmt.Println("📊 RECONCILIATION AUDIT REPORT")
	fmt.Println("=" + strings.Repeat("=", 60))
	fmt.Printf("Database: %s\n", dbPath)
	fmt.Printf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	printOverallStats(db)
	printFamilyBreakdown(db)
	printRecentRuns(db, limit)
	printRecentAudit(db, limit)
}

func printOverallStats(db *sql.DB) {
	fmt.Println("📈 OVERALL STATISTICS")
	fmt.Println(strings.Repeat("-", 40))

	var totalItems, autoMatched, manuallyMatched, confirmed, unknown, pending int
	var totalAmount, meanConfidence float64

	err := db.QueryRow(`
		SELECT
			COUNT(*) as total_items,
			SUM(CASE WHEN status = 'auto_matched' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'manually_matched' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'confirmed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'unknown' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END),
			COALESCE(SUM(CAST(amount AS REAL)), 0),
			COALESCE(AVG(confidence_ratio), 0)
		FROM reconciliation_items
	`).Scan(&totalItems, &autoMatched, &manuallyMatched, &confirmed, &unknown, &pending,
		&totalAmount, &meanConfidence)
	if err != nil {
		log.Printf("Error getting stats: %v", err)
		return
	}

	matchRate := 0.0
	if totalItems > 0 {
		matchRate = float64(autoMatched+manuallyMatched+confirmed) / float64(totalItems) * 100
	}

	fmt.Printf("Total Items: %d\n", totalItems)
	fmt.Printf("Matched: %d (%.1f%%)\n", autoMatched+manuallyMatched+confirmed, matchRate)
	fmt.Printf("  Auto: %d  Manual: %d  Confirmed: %d\n", autoMatched, manuallyMatched, confirmed)
	fmt.Printf("Unknown: %d\n", unknown)
	fmt.Printf("Pending: %d\n", pending)
	fmt.Printf("Total Amount: %.2f\n", totalAmount)
	fmt.Printf("Mean Confidence: %.3f\n", meanConfidence)
	fmt.Println()
}

func printFamilyBreakdown(db *sql.DB) {
	fmt.Println("🏦 BY FAMILY")
	fmt.Println(strings.Repeat("-", 40))

	rows, err := db.Query(`
		SELECT
			family,
			COUNT(*),
			SUM(CASE WHEN status IN ('auto_matched', 'manually_matched', 'confirmed') THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'unknown' THEN 1 ELSE 0 END),
			COALESCE(SUM(CAST(amount AS REAL)), 0)
		FROM reconciliation_items
		GROUP BY family
		ORDER BY family
	`)
	if err != nil {
		log.Printf("Error getting family breakdown: %v", err)
		return
	}
	defer rows.Close()

	fmt.Printf("%-15s %-8s %-8s %-8s %-14s\n", "Family", "Items", "Matched", "Unknown", "Amount")
	fmt.Println(strings.Repeat("-", 56))

	for rows.Next() {
		var family string
		var items, matched, unknown int
		var amount float64
		if err := rows.Scan(&family, &items, &matched, &unknown, &amount); err != nil {
			continue
		}
		fmt.Printf("%-15s %-8d %-8d %-8d %-14.2f\n", family, items, matched, unknown, amount)
	}
	fmt.Println()
}

func printRecentRuns(db *sql.DB, limit int) {
	fmt.Println("🔄 RECENT EXTRACTION RUNS")
	fmt.Println(strings.Repeat("-", 40))

	rows, err := db.Query(`
		SELECT
			started_at,
			family,
			transaction_count,
			items_created,
			auto_matched,
			unknown_count,
			skipped,
			status
		FROM reconciliation_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		log.Printf("Error getting runs: %v", err)
		return
	}
	defer rows.Close()

	fmt.Printf("%-17s %-13s %-6s %-8s %-6s %-8s %-8s\n",
		"Started", "Family", "Txs", "Created", "Auto", "Unknown", "Status")
	fmt.Println(strings.Repeat("-", 70))

	for rows.Next() {
		var startedAt sql.NullString
		var family, status string
		var txCount, created, auto, unknown, skipped int

		if err := rows.Scan(&startedAt, &family, &txCount, &created, &auto, &unknown, &skipped, &status); err != nil {
			continue
		}

		started := startedAt.String
		if t, err := time.Parse(time.RFC3339, startedAt.String); err == nil {
			started = t.Format("2006-01-02 15:04")
		}

		fmt.Printf("%-17s %-13s %-6d %-8d %-6d %-8d %-8s\n",
			started, family, txCount, created, auto, unknown, status)
	}
	fmt.Println()
}

func printRecentAudit(db *sql.DB, limit int) {
	fmt.Println("📝 RECENT AUDIT ENTRIES")
	fmt.Println(strings.Repeat("-", 40))

	rows, err := db.Query(`
		SELECT at, actor, action, entity_id
		FROM audit_entries
		ORDER BY at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		log.Printf("Error getting audit entries: %v", err)
		return
	}
	defer rows.Close()

	fmt.Printf("%-17s %-12s %-28s %-36s\n", "At", "Actor", "Action", "Entity")
	fmt.Println(strings.Repeat("-", 95))

	for rows.Next() {
		var at sql.NullString
		var actor, action, entityID string
		if err := rows.Scan(&at, &actor, &action, &entityID); err != nil {
			continue
		}

		when := at.String
		if t, err := time.Parse(time.RFC3339, at.String); err == nil {
			when = t.Format("2006-01-02 15:04")
		}

		fmt.Printf("%-17s %-12s %-28s %-36s\n", when, actor, action, entityID)
	}
}
