// Command pstdump walks a PST file's visible folder hierarchy and
// prints each folder's name and its messages' subjects.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pstkit/pst"
	"github.com/pstkit/pst/internal/ltp"
	"github.com/pstkit/pst/internal/ndb"
	"github.com/pstkit/pst/messaging"
)

func main() {
	showDeleted := flag.Bool("deleted", false, "also walk the Deleted Items folder")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: pstdump [flags] <file.pst>")
		fmt.Println("Flags:")
		flag.PrintDefaults()
		return
	}

	p, err := pst.Open(args[0])
	if err != nil {
		log.Fatalf("open pst: %v", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("close pst: %v", err)
		}
	}()

	store, err := p.OpenStore()
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	name, err := store.DisplayName()
	if err != nil {
		log.Printf("store display name: %v", err)
	} else {
		fmt.Printf("store: %s\n", name)
	}

	root, err := pst.OpenRootFolder(store)
	if err != nil {
		log.Fatalf("open root folder: %v", err)
	}
	walkFolder(store, root, 0)

	if *showDeleted {
		waste, err := store.WastebasketEntryID()
		if err != nil {
			log.Printf("wastebasket entry id: %v", err)
			return
		}
		folder, err := store.OpenFolder(waste)
		if err != nil {
			log.Printf("open wastebasket: %v", err)
			return
		}
		walkFolder(store, folder, 0)
	}

	os.Exit(0)
}

func walkFolder(store *messaging.Store, folder *messaging.Folder, depth int) {
	name, err := folder.DisplayName()
	if err != nil {
		name = "(unnamed)"
	}
	fmt.Printf("%s%s\n", indent(depth), name)

	contents := folder.ContentsTable()
	if contents != nil {
		for i := 0; i < contents.RowCount(); i++ {
			row, err := contents.Row(i)
			if err != nil {
				log.Printf("%scontents row %d: %v", indent(depth+1), i, err)
				continue
			}
			fmt.Printf("%s- %s\n", indent(depth+1), subjectOf(row))
		}
	}

	hierarchy := folder.HierarchyTable()
	if hierarchy == nil {
		return
	}
	for i := 0; i < hierarchy.RowCount(); i++ {
		rowID, err := hierarchy.RowID(i)
		if err != nil {
			log.Printf("%shierarchy row %d: %v", indent(depth+1), i, err)
			continue
		}
		childID, err := store.EntryIDFor(ndb.NodeID(rowID))
		if err != nil {
			log.Printf("%schild entry id: %v", indent(depth+1), err)
			continue
		}
		child, err := store.OpenFolder(childID)
		if err != nil {
			log.Printf("%sopen child folder: %v", indent(depth+1), err)
			continue
		}
		walkFolder(store, child, depth+1)
	}
}

func subjectOf(row map[uint16]ltp.PropertyValue) string {
	v, ok := row[messaging.PidTagSubject]
	if !ok {
		return "(no subject)"
	}
	s, ok := v.Value.(string)
	if !ok {
		return fmt.Sprintf("(subject: %v)", v.Value)
	}
	return s
}

func indent(depth int) string {
	out := make([]byte, depth*2)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}
