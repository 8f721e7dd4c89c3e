package main

import (
	"fmt"
	"os"
	"path/filepath"

	"librarydesk/library"
)

// Seeds a data directory with a starter membership and catalog so the
// console binary has something to log into. Existing record files in the
// directory are wiped first.
func main() {
	dataDir := os.Getenv("LIBRARYDESK_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}

	fmt.Println("Cleaning up existing record files...")
	recordFiles := []string{"users.csv", "books.csv", "transactions.csv", "reservations.csv"}
	for _, file := range recordFiles {
		if err := os.Remove(filepath.Join(dataDir, file)); err != nil && !os.IsNotExist(err) {
			fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
		}
	}
	fmt.Println("Cleanup complete.")

	svc, err := library.NewLibraryService(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening data directory: %v\n", err)
		os.Exit(1)
	}

	members := []library.Member{
		{Name: "Head Librarian", ID: "L1", Secret: "admin", Role: library.RoleLibrarian},
		{Name: "Alice Martin", ID: "S1", Secret: "alice", Role: library.RoleStudent},
		{Name: "Bob Chen", ID: "S2", Secret: "bob", Role: library.RoleStudent},
		{Name: "Prof. Dana Ito", ID: "F1", Secret: "dana", Role: library.RoleFaculty},
	}

	books := []library.Book{
		{Title: "1984", Author: "George Orwell", ISBN: "9780451524935", Publisher: "Signet"},
		{Title: "Animal Farm", Author: "George Orwell", ISBN: "9780452284241", Publisher: "Plume"},
		{Title: "The Art of War", Author: "Sun Tzu", ISBN: "9781590302255", Publisher: "Shambhala"},
		{Title: "Romeo and Juliet", Author: "William Shakespeare", ISBN: "9780743477116", Publisher: "Simon & Schuster"},
		{Title: "The Three Musketeers", Author: "Alexandre Dumas", ISBN: "9780140367470", Publisher: "Puffin"},
	}

	successCount := 0
	errorCount := 0

	for _, m := range members {
		fmt.Printf("Adding member: %s (%s)... ", m.Name, m.ID)
		if err := svc.AddMember(m); err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Println("OK")
		successCount++
	}

	for _, b := range books {
		fmt.Printf("Adding book: %s by %s... ", b.Title, b.Author)
		if err := svc.AddBook(b); err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Println("OK")
		successCount++
	}

	fmt.Printf("\nSeeding complete!\n")
	fmt.Printf("Records created: %d\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)
}
