package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/emrecanguldogan/HealthChain/pkg/hashing"
	"github.com/emrecanguldogan/HealthChain/pkg/types"
)

// grantRequest is the body of POST /grants
type grantRequest struct {
	DoctorAddress string             `json:"doctor_address"`
	Permissions   []types.Permission `json:"permissions"`
}

// roleRequest is the body of POST /roles
type roleRequest struct {
	Role types.Role `json:"role"`
}

// mintTokenHandler mints the caller's access token
func (s *Service) mintTokenHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	result, err := s.access.Mint(r.Context(), claims.WalletAddress)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusAccepted, result)
}

// tokenStatusHandler reports the caller's on-ledger token state
func (s *Service) tokenStatusHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	token, err := s.access.TokenStatus(r.Context(), claims.WalletAddress)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, token)
}

// grantAccessHandler authorizes a doctor for the caller's records
func (s *Service) grantAccessHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, types.ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if req.DoctorAddress == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, types.ErrCodeInvalidInput, "doctor_address is required")
		return
	}

	result, err := s.access.Grant(r.Context(), claims.WalletAddress, req.DoctorAddress, req.Permissions)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusAccepted, result)
}

// revokeAccessHandler withdraws a doctor's authorization
func (s *Service) revokeAccessHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	doctorAddress := mux.Vars(r)["doctorAddress"]

	result, err := s.access.Revoke(r.Context(), claims.WalletAddress, doctorAddress)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusAccepted, result)
}

// checkAccessHandler answers whether the caller may read the patient's
// records. A denial is a normal 200 response with allowed=false.
func (s *Service) checkAccessHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	patientAddress := mux.Vars(r)["patientAddress"]

	decision, err := s.access.CheckAccess(r.Context(), patientAddress, claims.WalletAddress)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, decision)
}

// assignRoleHandler assigns the caller's on-ledger role
func (s *Service) assignRoleHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, types.ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if req.Role != types.RolePatient && req.Role != types.RoleDoctor {
		s.writeErrorResponse(w, http.StatusBadRequest, types.ErrCodeInvalidInput, "role must be patient or doctor")
		return
	}

	handle, err := s.ledger.AssignRole(r.Context(), claims.WalletAddress, req.Role)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusAccepted, map[string]interface{}{
		"outcome":     types.OutcomePending,
		"transaction": handle,
	})
}

// putPatientProfileHandler upserts the caller's own patient profile
func (s *Service) putPatientProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	var profile types.PatientProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, types.ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if profile.Name == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, types.ErrCodeInvalidInput, "name is required")
		return
	}

	key, err := s.store.PutPatientProfile(r.Context(), claims.WalletAddress, &profile)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"key": key})
}

// getPatientProfileHandler returns a patient profile, gated by the
// authorization decision for non-self reads
func (s *Service) getPatientProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	patientAddress := mux.Vars(r)["patientAddress"]

	if !s.authorizeRead(w, r, patientAddress, claims.WalletAddress) {
		return
	}

	profile, err := s.store.GetPatientProfile(r.Context(), patientAddress)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, profile)
}

// putDoctorProfileHandler upserts the caller's own doctor profile
func (s *Service) putDoctorProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	var profile types.DoctorProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, types.ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if profile.Name == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, types.ErrCodeInvalidInput, "name is required")
		return
	}

	key, err := s.store.PutDoctorProfile(r.Context(), claims.WalletAddress, &profile)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"key": key})
}

// getDoctorProfileHandler returns a doctor's credential profile
func (s *Service) getDoctorProfileHandler(w http.ResponseWriter, r *http.Request) {
	doctorAddress := mux.Vars(r)["doctorAddress"]

	profile, err := s.store.GetDoctorProfile(r.Context(), doctorAddress)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, profile)
}

// uploadRecordHandler appends a health record for a patient
func (s *Service) uploadRecordHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	patientAddress := mux.Vars(r)["patientAddress"]

	if !s.authorizeRead(w, r, patientAddress, claims.WalletAddress) {
		return
	}

	var record types.HealthRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, types.ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if record.RecordType == "" || record.Data == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, types.ErrCodeInvalidInput, "record_type and data are required")
		return
	}

	// The author identity comes from the session, never the body
	if claims.WalletAddress == patientAddress {
		record.DoctorWalletHash = ""
	} else {
		grant, err := s.store.GetGrant(r.Context(), patientAddress, claims.WalletAddress)
		if err != nil {
			if ae, ok := err.(*types.AccessError); ok && ae.Type == types.ErrorTypeNotFound {
				s.writeErrorResponse(w, http.StatusForbidden, types.ErrCodeUnauthorized, "Write permission required to upload records for this patient")
				return
			}
			s.writeDomainError(w, err)
			return
		}
		if !grant.HasPermission(types.PermissionWrite) {
			s.writeErrorResponse(w, http.StatusForbidden, types.ErrCodeUnauthorized, "Write permission required to upload records for this patient")
			return
		}
		record.DoctorWalletHash = hashing.WalletHash(claims.WalletAddress)
	}

	recordID, err := s.store.PutRecord(r.Context(), patientAddress, &record)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, map[string]string{"record_id": recordID})
}

// listRecordsHandler lists a patient's health records in insertion order
func (s *Service) listRecordsHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		s.writeErrorResponse(w, http.StatusUnauthorized, types.ErrCodeUnauthorized, "No session")
		return
	}

	patientAddress := mux.Vars(r)["patientAddress"]

	if !s.authorizeRead(w, r, patientAddress, claims.WalletAddress) {
		return
	}

	records, err := s.store.ListRecords(r.Context(), patientAddress)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []*types.HealthRecord{}
	}

	s.writeJSONResponse(w, http.StatusOK, records)
}

// authorizeRead runs the authorization decision and writes the refusal
// when the requester is not allowed. A storage or ledger failure is
// reported as indeterminate, never as a denial.
func (s *Service) authorizeRead(w http.ResponseWriter, r *http.Request, patientAddress, requesterAddress string) bool {
	decision, err := s.access.CheckAccess(r.Context(), patientAddress, requesterAddress)
	if err != nil {
		s.writeDomainError(w, err)
		return false
	}
	if !decision.Allowed {
		s.writeErrorResponse(w, http.StatusForbidden, types.ErrCodeUnauthorized, "Not authorized for this patient's records")
		return false
	}
	return true
}

// writeDomainError maps a domain error onto an HTTP response
func (s *Service) writeDomainError(w http.ResponseWriter, err error) {
	ae, ok := err.(*types.AccessError)
	if !ok {
		s.writeErrorResponse(w, http.StatusInternalServerError, types.ErrCodeInternalError, "Internal error")
		return
	}

	status := http.StatusInternalServerError
	switch ae.Type {
	case types.ErrorTypeValidation:
		status = http.StatusBadRequest
	case types.ErrorTypeAuthorization:
		status = http.StatusForbidden
	case types.ErrorTypeNotFound:
		status = http.StatusNotFound
	case types.ErrorTypeConflict:
		status = http.StatusConflict
	case types.ErrorTypeStorage, types.ErrorTypeLedger:
		status = http.StatusServiceUnavailable
	case types.ErrorTypeCancelled:
		status = http.StatusBadRequest
	case types.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	}

	s.writeErrorResponse(w, status, ae.Code, ae.Message)
}

// writeJSONResponse writes a JSON response with the given status code
func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes a structured error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	s.writeJSONResponse(w, statusCode, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}
