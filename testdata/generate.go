// Command generate writes the sample sales dataset used in the README
// examples: sales.parquet and sales.csv with identical rows.
//
//	cd testdata && go run generate.go
package main

import (
	"encoding/csv"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

type Sale struct {
	Date    time.Time `parquet:"date"`
	Region  string    `parquet:"region"`
	Product string    `parquet:"product"`
	Sales   int64     `parquet:"sales"`
	Revenue float64   `parquet:"revenue"`
	Units   int32     `parquet:"units"`
}

var (
	regions  = []string{"East", "West", "North", "South"}
	products = []string{"Widget", "Gadget", "Gizmo"}
	prices   = map[string]float64{"Widget": 9.5, "Gadget": 24, "Gizmo": 14.25}
)

func generate(n int) []Sale {
	rng := rand.New(rand.NewSource(42))
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	sales := make([]Sale, n)
	for i := range sales {
		product := products[rng.Intn(len(products))]
		units := int32(1 + rng.Intn(20))
		sales[i] = Sale{
			Date:    start.AddDate(0, 0, rng.Intn(730)),
			Region:  regions[rng.Intn(len(regions))],
			Product: product,
			Sales:   int64(units) * int64(1+rng.Intn(5)),
			Revenue: float64(units) * prices[product],
			Units:   units,
		}
	}
	return sales
}

func writeParquet(path string, rows []Sale) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Sale](file)
	if _, err := writer.Write(rows); err != nil {
		return err
	}
	return writer.Close()
}

func writeCSV(path string, rows []Sale) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"date", "region", "product", "sales", "revenue", "units"}); err != nil {
		return err
	}
	for _, s := range rows {
		record := []string{
			s.Date.Format("2006-01-02"),
			s.Region,
			s.Product,
			strconv.FormatInt(s.Sales, 10),
			strconv.FormatFloat(s.Revenue, 'f', -1, 64),
			strconv.Itoa(int(s.Units)),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	rows := generate(500)

	if err := writeParquet("sales.parquet", rows); err != nil {
		logger.Fatal("failed to write parquet", zap.Error(err))
	}
	if err := writeCSV("sales.csv", rows); err != nil {
		logger.Fatal("failed to write csv", zap.Error(err))
	}

	logger.Info("generated sample dataset",
		zap.Strings("files", []string{"sales.parquet", "sales.csv"}),
		zap.Int("rows", len(rows)),
	)
}
