package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"smartsheet2jira/config"
)

func TestListSheetsPages(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sheet-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		switch page {
		case "1":
			_, _ = w.Write([]byte(`{"pageNumber":1,"totalPages":2,"data":[{"id":1,"name":"R1"},{"id":2,"name":"R2"}]}`))
		case "2":
			_, _ = w.Write([]byte(`{"pageNumber":2,"totalPages":2,"data":[{"id":3,"name":"R3"}]}`))
		default:
			t.Errorf("unexpected page %q", page)
		}
	}))
	defer srv.Close()

	client := NewSmartsheetClient(&config.Config{SmartsheetURL: srv.URL}, "sheet-token")
	sheets, err := client.ListSheets(context.Background())
	if err != nil {
		t.Fatalf("ListSheets() error = %v", err)
	}
	if len(sheets) != 3 || sheets[2].ID != 3 || sheets[2].Name != "R3" {
		t.Fatalf("unexpected sheets %+v", sheets)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 page requests, got %v", pages)
	}
}

func TestGetSheetPlacesCellsByColumnIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sheets/99" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{
			"id": 99,
			"name": "R1",
			"columns": [
				{"id": 10, "index": 0, "title": "Task Name"},
				{"id": 11, "index": 1, "title": "Finish"},
				{"id": 12, "index": 2, "title": "Done checkbox"}
			],
			"rows": [
				{"id": 1, "cells": [
					{"columnId": 12, "value": true},
					{"columnId": 10, "value": "CP GA EAP 8.0.5 blah"},
					{"columnId": 11, "value": "2024-06-01T08:00:00"}
				]},
				{"id": 2, "cells": [
					{"columnId": 10, "value": "other"}
				]}
			]
		}`)
	}))
	defer srv.Close()

	client := NewSmartsheetClient(&config.Config{SmartsheetURL: srv.URL}, "sheet-token")
	sheet, err := client.GetSheet(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetSheet() error = %v", err)
	}
	if sheet.Name != "R1" || len(sheet.Columns) != 3 || len(sheet.Rows) != 2 {
		t.Fatalf("unexpected sheet %+v", sheet)
	}

	first := sheet.Rows[0].Cells
	if first[0] != "CP GA EAP 8.0.5 blah" || first[1] != "2024-06-01T08:00:00" || first[2] != true {
		t.Fatalf("unexpected cells %v", first)
	}
	second := sheet.Rows[1].Cells
	if len(second) != 3 || second[0] != "other" || second[1] != nil || second[2] != nil {
		t.Fatalf("unexpected cells %v", second)
	}
}

func TestSmartsheetCheckAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errorCode":1002}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewSmartsheetClient(&config.Config{SmartsheetURL: srv.URL}, "bad")
	if err := client.CheckAuth(context.Background()); err == nil {
		t.Fatal("expected auth error")
	}
}
