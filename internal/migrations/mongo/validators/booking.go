package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"customer_email",
			"service_id",
			"location_id",
			"start_time",
			"duration_minutes",
			"end_time",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"customer_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"customer_email": bson.M{
				"bsonType": "string",
			},

			"location_id": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"duration_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  1440,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"assigned",
					"confirmed",
					"completed",
					"cancelled",
					"not_serviceable",
					"no_professionals_available",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
