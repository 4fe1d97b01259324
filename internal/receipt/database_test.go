package receipt

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var db *BoltDB

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("InsertRecord", func() {
		It("should assign sequential ids", func() {
			first := &Record{Date: "2026-01-01", Merchant: "A", Amount: 1, Kind: KindExpense, Category: CategoryOther}
			second := &Record{Date: "2026-01-02", Merchant: "B", Amount: 2, Kind: KindExpense, Category: CategoryOther}

			Expect(db.InsertRecord(first)).To(Succeed())
			Expect(db.InsertRecord(second)).To(Succeed())

			Expect(first.ID).To(Equal(uint64(1)))
			Expect(second.ID).To(Equal(uint64(2)))
		})

		It("should set the creation time", func() {
			rec := &Record{Date: "2026-01-01", Merchant: "A", Amount: 1, Kind: KindExpense, Category: CategoryOther}
			Expect(db.InsertRecord(rec)).To(Succeed())
			Expect(rec.CreatedAt).NotTo(BeZero())
		})

		It("should reject a second record with the same image hash", func() {
			first := &Record{Date: "2026-01-01", Merchant: "A", Amount: 1, Kind: KindExpense, Category: CategoryOther, ImageHash: "abc123"}
			second := &Record{Date: "2026-01-02", Merchant: "B", Amount: 2, Kind: KindExpense, Category: CategoryOther, ImageHash: "abc123"}

			Expect(db.InsertRecord(first)).To(Succeed())
			Expect(db.InsertRecord(second)).To(MatchError(ErrDuplicateImage))
		})

		It("should allow many records without image hashes", func() {
			first := &Record{Date: "2026-01-01", Merchant: "A", Amount: 1, Kind: KindExpense, Category: CategoryOther}
			second := &Record{Date: "2026-01-02", Merchant: "B", Amount: 2, Kind: KindExpense, Category: CategoryOther}

			Expect(db.InsertRecord(first)).To(Succeed())
			Expect(db.InsertRecord(second)).To(Succeed())
		})
	})

	Describe("GetRecord", func() {
		It("should round-trip a stored record", func() {
			rec := &Record{
				Date:        "2026-02-14",
				Merchant:    "Corner Coffee",
				Amount:      45.5,
				Kind:        KindExpense,
				Category:    CategoryEntertainment,
				RawResponse: `{"date": "2026-02-14"}`,
				ImageHash:   "deadbeef",
			}
			Expect(db.InsertRecord(rec)).To(Succeed())

			got, err := db.GetRecord(rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Merchant).To(Equal("Corner Coffee"))
			Expect(got.Amount).To(Equal(45.5))
			Expect(got.Category).To(Equal(CategoryEntertainment))
			Expect(got.RawResponse).To(Equal(`{"date": "2026-02-14"}`))
		})

		It("should return ErrRecordNotFound for an unknown id", func() {
			_, err := db.GetRecord(99)
			Expect(err).To(MatchError(ErrRecordNotFound))
		})
	})

	Describe("UpdateRecord", func() {
		It("should overwrite an existing record", func() {
			rec := &Record{Date: "2026-01-01", Merchant: "A", Amount: 1, Kind: KindExpense, Category: CategoryOther}
			Expect(db.InsertRecord(rec)).To(Succeed())

			rec.Merchant = "Renamed"
			rec.Amount = 9.99
			Expect(db.UpdateRecord(rec)).To(Succeed())

			got, err := db.GetRecord(rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Merchant).To(Equal("Renamed"))
			Expect(got.Amount).To(Equal(9.99))
		})

		It("should return ErrRecordNotFound for an unknown id", func() {
			rec := &Record{ID: 42, Date: "2026-01-01", Merchant: "A", Amount: 1, Kind: KindExpense, Category: CategoryOther}
			Expect(db.UpdateRecord(rec)).To(MatchError(ErrRecordNotFound))
		})
	})

	Describe("DeleteRecord", func() {
		It("should remove the record", func() {
			rec := &Record{Date: "2026-01-01", Merchant: "A", Amount: 1, Kind: KindExpense, Category: CategoryOther}
			Expect(db.InsertRecord(rec)).To(Succeed())

			Expect(db.DeleteRecord(rec.ID)).To(Succeed())

			_, err := db.GetRecord(rec.ID)
			Expect(err).To(MatchError(ErrRecordNotFound))
		})

		It("should free the image hash for reuse", func() {
			rec := &Record{Date: "2026-01-01", Merchant: "A", Amount: 1, Kind: KindExpense, Category: CategoryOther, ImageHash: "abc123"}
			Expect(db.InsertRecord(rec)).To(Succeed())
			Expect(db.DeleteRecord(rec.ID)).To(Succeed())

			again := &Record{Date: "2026-01-02", Merchant: "B", Amount: 2, Kind: KindExpense, Category: CategoryOther, ImageHash: "abc123"}
			Expect(db.InsertRecord(again)).To(Succeed())
		})

		It("should return ErrRecordNotFound for an unknown id", func() {
			Expect(db.DeleteRecord(99)).To(MatchError(ErrRecordNotFound))
		})
	})

	Describe("ListRecords", func() {
		It("should return records in insertion order", func() {
			for _, merchant := range []string{"first", "second", "third"} {
				rec := &Record{Date: "2026-01-01", Merchant: merchant, Amount: 1, Kind: KindExpense, Category: CategoryOther}
				Expect(db.InsertRecord(rec)).To(Succeed())
			}

			records, err := db.ListRecords()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))
			Expect(records[0].Merchant).To(Equal("first"))
			Expect(records[2].Merchant).To(Equal("third"))
		})

		It("should return an empty slice for an empty database", func() {
			records, err := db.ListRecords()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})
	})

	Describe("ListRecordsByDatePrefix", func() {
		BeforeEach(func() {
			for _, date := range []string{"2026-02-10", "2026-02-14", "2026-03-01", "2025-12-31"} {
				rec := &Record{Date: date, Merchant: "X", Amount: 1, Kind: KindExpense, Category: CategoryOther}
				Expect(db.InsertRecord(rec)).To(Succeed())
			}
		})

		It("should match a month prefix", func() {
			records, err := db.ListRecordsByDatePrefix("2026-02")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})

		It("should match a year prefix", func() {
			records, err := db.ListRecordsByDatePrefix("2026")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(3))
		})
	})

	Describe("FindRecordByImageHash", func() {
		It("should resolve a hash to its record", func() {
			rec := &Record{Date: "2026-01-01", Merchant: "A", Amount: 1, Kind: KindExpense, Category: CategoryOther, ImageHash: "abc123"}
			Expect(db.InsertRecord(rec)).To(Succeed())

			got, err := db.FindRecordByImageHash("abc123")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(rec.ID))
		})

		It("should return ErrRecordNotFound for an unknown hash", func() {
			_, err := db.FindRecordByImageHash("nope")
			Expect(err).To(MatchError(ErrRecordNotFound))
		})
	})

	Describe("base worth", func() {
		It("should be zero before it is set", func() {
			base, err := db.GetBaseWorth()
			Expect(err).NotTo(HaveOccurred())
			Expect(base).To(BeZero())
		})

		It("should round-trip a stored value", func() {
			Expect(db.SetBaseWorth(12345.67)).To(Succeed())
			base, err := db.GetBaseWorth()
			Expect(err).NotTo(HaveOccurred())
			Expect(base).To(Equal(12345.67))
		})

		It("should allow negative anchors", func() {
			Expect(db.SetBaseWorth(-500)).To(Succeed())
			base, err := db.GetBaseWorth()
			Expect(err).NotTo(HaveOccurred())
			Expect(base).To(Equal(-500.0))
		})
	})
})
