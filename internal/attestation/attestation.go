// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package attestation is the optional hardware-attestation collaborator: it
// produces an opaque quote over a configuration digest. The quote backend
// itself is out of scope; QuoteGenerator is the pluggable boundary to it.
package attestation

import (
	"crypto/sha256"

	"vsa/internal/relayer"
)

// Report is the attestation output returned to callers: a quote, the
// report data it was computed over, and the metadata that ties it to a
// specific relayer build and configuration.
type Report struct {
	QuoteData  []byte
	ReportData [64]byte
	Timestamp  uint64
	Version    string
	ConfigHash [32]byte
	PublicKey  []byte
}

// QuoteGenerator is the out-of-scope hardware backend boundary: given
// 64 bytes of report data, it returns an opaque quote.
type QuoteGenerator interface {
	GetQuote(reportData [64]byte) ([]byte, error)
}

// Manager generates and verifies attestation reports. When disabled,
// GenerateReport returns an Attestation error instead of calling the quote
// backend at all.
type Manager struct {
	enabled   bool
	generator QuoteGenerator
	version   string
	now       func() uint64
}

// NewManager builds a Manager. now is injected so tests can stamp a
// deterministic timestamp; callers normally pass a wrapper around
// time.Now().Unix().
func NewManager(enabled bool, generator QuoteGenerator, version string, now func() uint64) *Manager {
	return &Manager{enabled: enabled, generator: generator, version: version, now: now}
}

// GenerateReport builds report_data as config_hash || sha256(version), asks
// the quote generator for a quote over it, and assembles a Report.
func (m *Manager) GenerateReport(configHash [32]byte) (Report, error) {
	if !m.enabled {
		return Report{}, relayer.New(relayer.KindAttestation, "attestation not enabled")
	}

	reportData := prepareReportData(configHash, m.version)
	quoteData, err := m.generator.GetQuote(reportData)
	if err != nil {
		return Report{}, relayer.Wrap(relayer.KindAttestation, "quote backend failed", err)
	}

	return Report{
		QuoteData:  quoteData,
		ReportData: reportData,
		Timestamp:  m.now(),
		Version:    m.version,
		ConfigHash: configHash,
		PublicKey:  nil,
	}, nil
}

// VerifyAttestation reports whether report is acceptable. If attestation is
// disabled, verification is skipped and reports are accepted.
func (m *Manager) VerifyAttestation(report Report) (bool, error) {
	if !m.enabled {
		return true, nil
	}
	expected := prepareReportData(report.ConfigHash, report.Version)
	return expected == report.ReportData, nil
}

// prepareReportData packs report_data[0:32] = config_hash and
// report_data[32:64] = sha256(version_string).
func prepareReportData(configHash [32]byte, version string) [64]byte {
	var out [64]byte
	copy(out[:32], configHash[:])
	versionHash := sha256.Sum256([]byte(version))
	copy(out[32:], versionHash[:])
	return out
}

// MockQuoteGenerator is a stand-in for a real TDX/SGX backend: it returns a
// fixed placeholder quote, the same way the original collaborator's
// non-Linux fallback did.
type MockQuoteGenerator struct{}

func (MockQuoteGenerator) GetQuote(reportData [64]byte) ([]byte, error) {
	return []byte{0xDE, 0xAD, 0xBE, 0xEF}, nil
}
