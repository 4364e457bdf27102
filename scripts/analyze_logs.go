package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

type LogStats struct {
	ScansAccepted     int
	DuplicateReplays  int
	CardsNotFound     int
	ExpiredRejections int
	PausedRejections  int
	ConflictExhausted int
	WebhookFailures   int
	EmailFailures     int
	QueueDrops        int
	TotalErrors       int
	CardActivity      map[string]int
	ErrorPatterns     map[string]int
}

func main() {
	today := time.Now().Format("2006-01-02")
	logDir := "./logs"

	stats := &LogStats{
		CardActivity:  make(map[string]int),
		ErrorPatterns: make(map[string]int),
	}

	analyzeInfoLogs(filepath.Join(logDir, fmt.Sprintf("info-%s.log", today)), stats)
	analyzeErrorLogs(filepath.Join(logDir, fmt.Sprintf("error-%s.log", today)), stats)

	printReport(stats)
}

func analyzeInfoLogs(logFile string, stats *LogStats) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.Contains(line, "Scan accepted for card") {
			stats.ScansAccepted++
			extractCardActivity(line, stats)
		}
		if strings.Contains(line, "Replayed duplicate scan") {
			stats.DuplicateReplays++
			extractCardActivity(line, stats)
		}
	}
}

func analyzeErrorLogs(logFile string, stats *LogStats) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		stats.TotalErrors++

		if strings.Contains(line, "Card not found") {
			stats.CardsNotFound++
		}
		if strings.Contains(line, "card expired") {
			stats.ExpiredRejections++
			extractCardActivity(line, stats)
		}
		if strings.Contains(line, "card paused") {
			stats.PausedRejections++
			extractCardActivity(line, stats)
		}
		if strings.Contains(line, "lost all conflict retries") {
			stats.ConflictExhausted++
			extractCardActivity(line, stats)
		}
		if strings.Contains(line, "Wallet webhook") {
			stats.WebhookFailures++
		}
		if strings.Contains(line, "Reward email") {
			stats.EmailFailures++
		}
		if strings.Contains(line, "Dispatcher queue full") {
			stats.QueueDrops++
		}

		extractErrorPattern(line, stats)
	}
}

func extractCardActivity(line string, stats *LogStats) {
	// Card codes are UUIDs
	codeRegex := regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	if code := codeRegex.FindString(line); code != "" {
		stats.CardActivity[code]++
	}
}

func extractErrorPattern(line string, stats *LogStats) {
	parts := strings.Split(line, ":")
	if len(parts) > 1 {
		errorMsg := strings.TrimSpace(parts[len(parts)-1])
		stats.ErrorPatterns[errorMsg]++
	}
}

func printReport(stats *LogStats) {
	fmt.Println("\n=== Log Analysis Report ===")
	fmt.Println("Generated:", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Println("\n1. Scan Statistics:")
	fmt.Printf("   Accepted Scans: %d\n", stats.ScansAccepted)
	fmt.Printf("   Duplicate Replays: %d\n", stats.DuplicateReplays)

	fmt.Println("\n2. Rejections:")
	fmt.Printf("   Unknown Cards: %d\n", stats.CardsNotFound)
	fmt.Printf("   Expired Cards: %d\n", stats.ExpiredRejections)
	fmt.Printf("   Paused Cards: %d\n", stats.PausedRejections)
	fmt.Printf("   Conflict Retries Exhausted: %d\n", stats.ConflictExhausted)

	fmt.Println("\n3. Dispatcher Health:")
	fmt.Printf("   Wallet Webhook Failures: %d\n", stats.WebhookFailures)
	fmt.Printf("   Reward Email Failures: %d\n", stats.EmailFailures)
	fmt.Printf("   Queue Drops: %d\n", stats.QueueDrops)

	fmt.Println("\n4. Error Statistics:")
	fmt.Printf("   Total Errors: %d\n", stats.TotalErrors)

	fmt.Println("\n5. Most Scanned Cards:")
	printTopCards(stats.CardActivity, 5)

	fmt.Println("\n6. Most Common Errors:")
	printTopErrors(stats.ErrorPatterns, 5)
}

func printTopCards(cards map[string]int, limit int) {
	type cardActivity struct {
		code  string
		count int
	}

	var activities []cardActivity
	for code, count := range cards {
		activities = append(activities, cardActivity{code, count})
	}

	sort.Slice(activities, func(i, j int) bool {
		return activities[i].count > activities[j].count
	})

	for i, activity := range activities {
		if i >= limit {
			break
		}
		fmt.Printf("   %s: %d scans\n", activity.code, activity.count)
	}
}

func printTopErrors(errors map[string]int, limit int) {
	type errorCount struct {
		error string
		count int
	}

	var errorList []errorCount
	for err, count := range errors {
		errorList = append(errorList, errorCount{err, count})
	}

	sort.Slice(errorList, func(i, j int) bool {
		return errorList[i].count > errorList[j].count
	})

	for i, err := range errorList {
		if i >= limit {
			break
		}
		fmt.Printf("   %s: %d occurrences\n", err.error, err.count)
	}
}
