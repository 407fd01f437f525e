package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// SalesGenerator generates pipe-delimited sales logs
type SalesGenerator struct {
	Count        int
	StartDate    time.Time
	Days         int
	DirtyRatio   float64
	ThousandsSep bool
	Header       bool
	rng          *rand.Rand
}

type product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

var catalog = []product{
	{"P101", "Laptop", decimal.RequireFromString("45000.00")},
	{"P102", "Mouse,Wireless", decimal.RequireFromString("500.00")},
	{"P103", "Keyboard", decimal.RequireFromString("1500.00")},
	{"P104", "Monitor", decimal.RequireFromString("9000.00")},
	{"P105", "USB Cable", decimal.RequireFromString("150.00")},
	{"P106", "Webcam", decimal.RequireFromString("2500.00")},
	{"P107", "Headphones", decimal.RequireFromString("3200.00")},
	{"P108", "Café Mug", decimal.RequireFromString("250.00")},
}

var regions = []string{"North", "South", "East", "West"}

func main() {
	var (
		output    = flag.String("output", "generated_sales.txt", "Output file path")
		count     = flag.Int("count", 100, "Number of transactions to generate")
		startDate = flag.String("start-date", "2024-12-01", "First transaction date (YYYY-MM-DD)")
		days      = flag.Int("days", 30, "Number of days covered")
		dirty     = flag.Float64("dirty", 0.1, "Fraction of malformed or invalid lines (0.0-1.0)")
		thousands = flag.Bool("thousands", true, "Format prices with thousands separators")
		header    = flag.Bool("header", true, "Write a header line")
		encoding  = flag.String("encoding", "utf-8", "Output encoding: utf-8, latin-1")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	if *dirty < 0 || *dirty > 1 {
		log.Fatalf("Dirty ratio must be between 0.0 and 1.0")
	}

	generator := &SalesGenerator{
		Count:        *count,
		StartDate:    start,
		Days:         *days,
		DirtyRatio:   *dirty,
		ThousandsSep: *thousands,
		Header:       *header,
		rng:          rand.New(rand.NewSource(*seed)),
	}

	lines := generator.Generate()
	if err := writeLines(*output, lines, *encoding); err != nil {
		log.Fatalf("Failed to write sales log: %v", err)
	}

	fmt.Printf("Generated %d transactions in %s\n", *count, *output)
	fmt.Printf("Dirty ratio: %.2f, encoding: %s\n", *dirty, *encoding)
	fmt.Printf("Seed used: %d\n", *seed)
}

// Generate creates the log lines, including the header when enabled
func (g *SalesGenerator) Generate() []string {
	lines := make([]string, 0, g.Count+1)
	if g.Header {
		lines = append(lines, "TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region")
	}

	for i := 0; i < g.Count; i++ {
		fields := g.cleanRecord(i + 1)
		if g.rng.Float64() < g.DirtyRatio {
			fields = g.corrupt(fields)
		}
		lines = append(lines, strings.Join(fields, "|"))
	}
	return lines
}

func (g *SalesGenerator) cleanRecord(n int) []string {
	p := catalog[g.rng.Intn(len(catalog))]
	date := g.StartDate.AddDate(0, 0, g.rng.Intn(max(g.Days, 1)))

	return []string{
		fmt.Sprintf("T%03d", n),
		date.Format("2006-01-02"),
		p.ID,
		p.Name,
		fmt.Sprintf("%d", 1+g.rng.Intn(15)),
		g.formatPrice(p.Price),
		fmt.Sprintf("C%03d", 1+g.rng.Intn(50)),
		regions[g.rng.Intn(len(regions))],
	}
}

// corrupt applies one defect the analyzer is expected to reject
func (g *SalesGenerator) corrupt(fields []string) []string {
	switch g.rng.Intn(7) {
	case 0:
		return fields[:6] // wrong field count
	case 1:
		fields[4] = "abc" // non-numeric quantity
	case 2:
		fields[0] = "X" + fields[0][1:] // bad transaction prefix
	case 3:
		fields[6] = "X" + fields[6][1:] // bad customer prefix
	case 4:
		fields[4] = "0"
	case 5:
		fields[5] = "-" + fields[5]
	case 6:
		fields[7] = ""
	}
	return fields
}

func (g *SalesGenerator) formatPrice(price decimal.Decimal) string {
	s := price.StringFixed(2)
	if !g.ThousandsSep {
		return s
	}

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + "." + frac
}

func writeLines(path string, lines []string, encoding string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var dst io.WriteCloser = file
	switch encoding {
	case "utf-8":
	case "latin-1":
		dst = transform.NewWriter(file, charmap.ISO8859_1.NewEncoder())
	default:
		return fmt.Errorf("unsupported encoding %q", encoding)
	}

	w := bufio.NewWriter(dst)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return dst.Close()
}
