package email

// PreviewData is sample template data for rendering templates locally.
var PreviewData = map[Template]map[string]string{
	TemplateAppointmentConfirmed: {
		"AppointmentID":   "1024",
		"PatientName":     "Nguyen Van A",
		"DoctorName":      "Dr. Tran Thi B",
		"DepartmentName":  "Cardiology",
		"AppointmentDate": "2024-03-05",
		"AppointmentTime": "09:30:00",
	},
	TemplateAppointmentRejected: {
		"AppointmentID":   "1025",
		"PatientName":     "Nguyen Van A",
		"DoctorName":      "Dr. Tran Thi B",
		"DepartmentName":  "Cardiology",
		"AppointmentDate": "2024-03-05",
		"AppointmentTime": "10:00:00",
		"Reason":          "Doctor is attending a conference",
	},
	TemplateAppointmentCancelled: {
		"AppointmentID":   "1026",
		"PatientName":     "Nguyen Van A",
		"DoctorName":      "Dr. Tran Thi B",
		"DepartmentName":  "Cardiology",
		"AppointmentDate": "2024-03-05",
		"AppointmentTime": "10:30:00",
		"CancelledBy":     "patient",
		"Reason":          "Feeling better",
	},
}
