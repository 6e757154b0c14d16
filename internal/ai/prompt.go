package ai

import (
	"fmt"
	"strings"

	"github.com/nhle/bod-watchlist/internal/model"
)

const transcribePrompt = "Transkripsikan notulensi rapat BOD TelkoMedika ini dengan fokus pada pembagian tugas RACI."

const summarySystemPrompt = "Anda adalah sekretaris Direksi yang menyiapkan pembukaan rapat secara ringkas dan formal."

const summaryPromptFormat = "Data Mandat: %s. Berikan ringkasan eksekutif 1 paragraf untuk pembukaan rapat Direksi hari ini. Fokus pada akuntabilitas divisi."

const extractSystemPrompt = `Anda mengekstrak penugasan dari notulensi rapat Direksi.
Balas hanya dengan objek JSON berbentuk {"tasks": [...]}.
Setiap elemen memiliki kunci: title, description, accountableId, responsibleIds,
consultedIds, informedIds, priority (LOW|MEDIUM|HIGH|URGENT), meetingDate, dueDate.
Tanggal memakai format YYYY-MM-DD. Semua id adalah angka dari referensi unit.`

// buildExtractPrompt lists the RACI rules and the roster the model must
// pick ids from.
func buildExtractPrompt(notes string, users []model.User) string {
	var sb strings.Builder

	sb.WriteString("Ekstrak daftar penugasan dengan format RACI Matrix dari notulensi rapat BOD TelkoMedika.\n\n")

	sb.WriteString("ATURAN RACI:\n")
	sb.WriteString("- Accountable (A): Hanya 1 unit, penanggung jawab utama hasil akhir.\n")
	sb.WriteString("- Responsible (R): Unit yang melakukan pekerjaan/eksekusi.\n")
	sb.WriteString("- Consulted (C): Unit yang dimintai saran/data pendukung.\n")
	sb.WriteString("- Informed (I): Unit yang perlu mengetahui progres.\n\n")

	sb.WriteString("REFERENSI UNIT (Gunakan ID):\n")
	for _, u := range users {
		sb.WriteString(fmt.Sprintf("- ID %d: %s (%s)\n", u.ID, u.Name, u.DivisionLabel()))
	}

	sb.WriteString("\nNotulensi: ")
	sb.WriteString(notes)

	return sb.String()
}
